package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/metrics"
)

func TestHandlerExposesCounters(t *testing.T) {
	metrics.RecordListing("standard", 20*time.Millisecond, nil)
	metrics.RecordListing("search", time.Millisecond, errors.New("boom"))
	metrics.RecordStaleResponse()
	metrics.RecordMutation("rename_folder", nil)
	metrics.RecordUpload(512, nil)
	metrics.RecordChangeNotice("created")

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, `filedeck_listing_requests_total{status="success",view="standard"}`)
	assert.Contains(t, out, `filedeck_listing_requests_total{status="error",view="search"}`)
	assert.Contains(t, out, "filedeck_stale_responses_total")
	assert.Contains(t, out, `filedeck_mutations_total{op="rename_folder",status="success"}`)
	assert.Contains(t, out, "filedeck_upload_bytes_total")
	assert.Contains(t, out, `filedeck_change_notices_total{type="created"}`)
}
