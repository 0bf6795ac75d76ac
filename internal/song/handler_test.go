package song

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *memMetadataStore, *memBlobStore) {
	t.Helper()
	repo := &memMetadataStore{}
	blobs := newMemBlobStore()
	h := NewHandler(NewService(repo, blobs, zap.NewNop(), time.Hour), zap.NewNop())
	r := chi.NewRouter()
	h.Routes(r)
	return r, repo, blobs
}

func multipartBody(t *testing.T, title, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		require.NoError(t, mw.WriteField("title", title))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(r chi.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPostSongs(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, "Demo", "demo.mp3", mp3Payload())
	req := httptest.NewRequest(http.MethodPost, "/songs", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(r, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Demo", created.Title)
	assert.Equal(t, 0, created.Likes)
	assert.NotZero(t, created.ID)
}

func TestPostSongsRejectsBadSignature(t *testing.T) {
	r, _, blobs := newTestRouter(t)

	body, contentType := multipartBody(t, "Demo", "demo.mp3", []byte{0x00, 0x00, 0x00, 0x01})
	req := httptest.NewRequest(http.MethodPost, "/songs", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(r, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, blobs.len())
}

func TestPostSongsRequiresTitle(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, "", "demo.mp3", mp3Payload())
	req := httptest.NewRequest(http.MethodPost, "/songs", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(r, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSongsOrdering(t *testing.T) {
	r, repo, _ := newTestRouter(t)

	for _, title := range []string{"a", "b", "c"} {
		_, err := repo.Create(context.Background(), title, "songs/"+title+".mp3")
		require.NoError(t, err)
	}

	rec := doRequest(r, httptest.NewRequest(http.MethodGet, "/songs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{songs[0].Title, songs[1].Title, songs[2].Title})
}

func TestLikeUnknownSong(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/songs/99999/like", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeSongEndpoint(t *testing.T) {
	r, repo, _ := newTestRouter(t)

	created, err := repo.Create(context.Background(), "Demo", "songs/demo.mp3")
	require.NoError(t, err)

	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/songs/1/like", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 1, updated.Likes)
}

func TestDownloadURLUnknownSong(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doRequest(r, httptest.NewRequest(http.MethodGet, "/songs/99999/download-url", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamRoundTrip(t *testing.T) {
	r, _, _ := newTestRouter(t)

	payload := mp3Payload()
	body, contentType := multipartBody(t, "Demo", "demo.mp3", payload)
	req := httptest.NewRequest(http.MethodPost, "/songs", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(r, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	streamRec := doRequest(r, httptest.NewRequest(http.MethodGet, "/songs/1/stream", nil))
	require.Equal(t, http.StatusOK, streamRec.Code)
	assert.Equal(t, "audio/mpeg", streamRec.Header().Get("Content-Type"))
	assert.Equal(t, payload, streamRec.Body.Bytes(), "streamed bytes must equal the uploaded payload")
}

func TestUploadEndpoint(t *testing.T) {
	r, repo, blobs := newTestRouter(t)

	body, contentType := multipartBody(t, "", "loop.mp3", mp3Payload())
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(r, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "loop.mp3", stored.Filename)
	assert.NotEmpty(t, stored.FileID)
	assert.Equal(t, 1, blobs.len())

	songs, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, songs)
}
