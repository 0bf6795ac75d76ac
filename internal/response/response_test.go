package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	BadGateway(rec, "database insert failed")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "database insert failed", env.Error)
}

func TestOKWritesPayloadRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"url": "https://blobs.test/songs/x.mp3"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://blobs.test/songs/x.mp3", body["url"])
}
