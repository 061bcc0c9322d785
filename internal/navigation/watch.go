package navigation

import (
	"context"

	"github.com/TheMichaelB/filedeck/internal/metrics"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// WatchChanges reloads the current listing whenever a change notice affects
// it. It returns when feed closes or ctx ends.
func (n *Navigator) WatchChanges(ctx context.Context, feed <-chan models.ChangeNotice) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice, ok := <-feed:
			if !ok {
				return
			}
			metrics.RecordChangeNotice(string(notice.Type))

			if !n.affected(notice) {
				continue
			}

			n.logger.WithFields(map[string]interface{}{
				"type":      notice.Type,
				"folder_id": notice.FolderID,
			}).Debug("Reloading after remote change")
			n.Reload(ctx)
		}
	}
}

func (n *Navigator) affected(notice models.ChangeNotice) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state.Location.Kind {
	case models.LocationFolder:
		return notice.Touches(n.state.Location.FolderID)
	case models.LocationRecycleBin:
		return notice.AffectsRecycleBin()
	case models.LocationDownloads:
		return false
	default:
		// Recent files and search results can change with any edit.
		return true
	}
}
