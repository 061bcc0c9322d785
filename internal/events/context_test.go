package events_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

func TestFromContext(t *testing.T) {
	logger := events.FromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestWithLogger(t *testing.T) {
	logger := events.NewNopLogger()

	_, ok := events.LoggerFrom(context.Background())
	assert.False(t, ok)

	ctx := events.WithLogger(context.Background(), logger)

	assert.Same(t, logger, events.FromContext(ctx))
	got, ok := events.LoggerFrom(ctx)
	assert.True(t, ok)
	assert.Same(t, logger, got)
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := events.WithLogger(context.Background(), events.NewTestLogger(events.InfoLevel, "json", &buf))

	requestID := events.NewRequestID()
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)

	ctx = events.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, events.GetRequestID(ctx))

	events.FromContext(ctx).Info("tagged")
	assert.Contains(t, buf.String(), `"request_id":"`+requestID+`"`)
}

func TestWithFolderID(t *testing.T) {
	ctx := events.WithFolderID(context.Background(), 42)

	id, ok := events.GetFolderID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = events.GetFolderID(context.Background())
	assert.False(t, ok)
}

func TestGetRequestIDEmpty(t *testing.T) {
	assert.Empty(t, events.GetRequestID(context.Background()))
}

func TestBroadcaster(t *testing.T) {
	b := events.NewBroadcaster()
	ch := b.Subscribe()
	assert.Equal(t, 1, b.Count())

	b.Notify(models.Notice{Kind: models.NoticeInfo, Message: "hello"})

	select {
	case n := <-ch:
		assert.Equal(t, "hello", n.Message)
		assert.False(t, n.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("notice not delivered")
	}

	b.Unsubscribe(ch)
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.Count())

	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcasterDropsForSlowSubscriber(t *testing.T) {
	b := events.NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	assert.NotPanics(t, func() {
		for i := 0; i < 200; i++ {
			b.Notify(models.Notice{Message: "spam"})
		}
	})
	assert.Len(t, ch, cap(ch))
}

func TestErrorNotice(t *testing.T) {
	err := &models.APIError{StatusCode: 409, Message: "A folder with that name already exists"}

	n := events.ErrorNotice("create folder", err)

	assert.Equal(t, models.NoticeError, n.Kind)
	assert.Equal(t, "create folder", n.Op)
	assert.Equal(t, "A folder with that name already exists", n.Message)
	assert.ErrorIs(t, n.Err, err)
}
