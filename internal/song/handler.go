package song

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/easysampler/service/internal/response"
)

// maxUploadBytes caps how much of a multipart body is held in memory before
// net/http spills the rest to a temp file.
const maxUploadBytes = 32 << 20

// streamChunkSize is the proxy copy granularity for /songs/{id}/stream.
const streamChunkSize = 8 * 1024

// Handler holds HTTP handlers for song-related endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new song Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts all song endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/songs", h.CreateSong)
	r.Get("/songs", h.ListSongs)
	r.Post("/songs/{id}/like", h.LikeSong)
	r.Get("/songs/{id}/download-url", h.DownloadURL)
	r.Get("/songs/{id}/stream", h.Stream)
	r.Post("/upload", h.Upload)
}

// CreateSong godoc
//
//	@Summary		Upload a song
//	@Description	Accepts an MP3 plus a title, stores the audio and its metadata.
//	@Tags			songs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"MP3 file"
//	@Param			title	formData	string	true	"Song title"
//	@Success		201	{object}	Song
//	@Failure		400	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/songs [post]
func (h *Handler) CreateSong(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "malformed multipart request")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		response.BadRequest(w, "title is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	created, err := h.svc.CreateSong(r.Context(), title, header.Filename, file, header.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, created)
}

// ListSongs godoc
//
//	@Summary	List all songs
//	@Tags		songs
//	@Produce	json
//	@Success	200	{array}		Song
//	@Failure	502	{object}	response.Envelope
//	@Router		/songs [get]
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.ListSongs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if songs == nil {
		songs = []Song{}
	}
	response.OK(w, songs)
}

// LikeSong godoc
//
//	@Summary	Like a song
//	@Tags		songs
//	@Produce	json
//	@Param		id	path		int	true	"Song ID"
//	@Success	200	{object}	Song
//	@Failure	404	{object}	response.Envelope
//	@Failure	502	{object}	response.Envelope
//	@Router		/songs/{id}/like [post]
func (h *Handler) LikeSong(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.BadRequest(w, "invalid song id")
		return
	}

	updated, err := h.svc.LikeSong(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, updated)
}

// DownloadURL godoc
//
//	@Summary	Get a presigned download URL
//	@Tags		songs
//	@Produce	json
//	@Param		id	path		int	true	"Song ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	response.Envelope
//	@Failure	502	{object}	response.Envelope
//	@Router		/songs/{id}/download-url [get]
func (h *Handler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.BadRequest(w, "invalid song id")
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"url": url})
}

// Stream godoc
//
//	@Summary		Stream a song's audio
//	@Description	Proxies the audio bytes through the API so browsers avoid cross-origin blob access.
//	@Tags			songs
//	@Produce		audio/mpeg
//	@Param			id	path	int	true	"Song ID"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/songs/{id}/stream [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.BadRequest(w, "invalid song id")
		return
	}

	rc, contentType, err := h.svc.OpenStream(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	// Copy in fixed-size chunks. A client disconnect cancels r.Context(),
	// which aborts the underlying object read; the status is already
	// committed, so mid-stream failures can only be logged.
	buf := make([]byte, streamChunkSize)
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				h.log.Warn("stream aborted",
					zap.Int64("song_id", id),
					zap.Error(rerr),
				)
			}
			return
		}
	}
}

// Upload godoc
//
//	@Summary		Upload an MP3 without metadata
//	@Description	Validates and stores the file; no song row is created.
//	@Tags			songs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"MP3 file"
//	@Success		200	{object}	Upload
//	@Failure		400	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "malformed multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	stored, err := h.svc.StoreUpload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, stored)
}

// writeError maps service errors onto the HTTP taxonomy: invalid input is
// the client's fault, missing rows are 404, and any downstream store
// failure is a 502.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "song not found")
	case errors.Is(err, ErrStorage), errors.Is(err, ErrPersistence):
		response.BadGateway(w, err.Error())
	default:
		response.InternalError(w)
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
