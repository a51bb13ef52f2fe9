package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_UpdateParsesSnapshotIntoLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snapshot{
			FrameCount:  42,
			TotalEvents: 7,
			ModelA:      "6581",
			ModelB:      "8580",
		})
	}))
	defer srv.Close()

	v := newView(srv.URL)
	require.NoError(t, v.Update())
	require.NoError(t, v.err)
	require.NotEmpty(t, v.lines)
	assert.Contains(t, v.lines[0], "42")
	assert.Contains(t, v.lines[len(v.lines)-1], "6581")
	assert.Contains(t, v.lines[len(v.lines)-1], "8580")
}

func TestView_UpdateRecordsErrorOnUnreachableServer(t *testing.T) {
	v := newView("http://127.0.0.1:1/status")
	require.NoError(t, v.Update(), "Update itself never returns an error; failures are recorded on v.err")
	assert.Error(t, v.err)
}

func TestView_Layout(t *testing.T) {
	v := newView("http://example.invalid")
	w, h := v.Layout(0, 0)
	assert.Equal(t, 420, w)
	assert.Equal(t, 220, h)
}
