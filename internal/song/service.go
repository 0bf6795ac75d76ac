package song

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easysampler/service/internal/storage"
)

// ErrStorage is returned when the blob store cannot serve a request.
var ErrStorage = errors.New("object storage unavailable")

// ErrPersistence is returned when the metadata store cannot serve a request.
var ErrPersistence = errors.New("metadata store failure")

const audioContentType = "audio/mpeg"

// MetadataStore abstracts song-row persistence so tests can substitute an
// in-memory implementation for the Postgres repository.
type MetadataStore interface {
	Create(ctx context.Context, title, songKey string) (*Song, error)
	ListAll(ctx context.Context) ([]Song, error)
	IncrementLikes(ctx context.Context, id int64) (*Song, error)
	GetSongKey(ctx context.Context, id int64) (string, error)
}

// Service contains the business logic for songs. The blob store and the
// metadata store have no shared transaction; Service is the only place that
// keeps the two consistent.
type Service struct {
	repo       MetadataStore
	blobs      storage.Storage
	log        *zap.Logger
	presignTTL time.Duration
}

// NewService creates a new song Service. presignTTL bounds download URLs
// and defaults to one hour when non-positive.
func NewService(repo MetadataStore, blobs storage.Storage, log *zap.Logger, presignTTL time.Duration) *Service {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &Service{repo: repo, blobs: blobs, log: log, presignTTL: presignTTL}
}

// CreateSong validates the upload, writes the audio blob, then records the
// metadata row. A failed insert triggers a compensating delete of the blob,
// so a song either exists in both stores or in neither. The window where
// the blob exists without a row is never observable: no row yet references
// the key.
func (s *Service) CreateSong(ctx context.Context, title, filename string, file io.ReadSeeker, size int64) (*Song, error) {
	if err := s.sniff(filename, file); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("songs/%s.mp3", uuid.NewString())

	if err := s.blobs.Put(ctx, key, file, size, audioContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	created, err := s.repo.Create(ctx, title, key)
	if err != nil {
		// Compensate so the blob does not outlive the failed insert. Its
		// own failure is logged but never reported: the caller gets the
		// original insert error, and the orphaned key stays discoverable
		// in the logs.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Error("compensating blob delete failed, object orphaned",
				zap.String("song_key", key),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return created, nil
}

// ListSongs returns every song, newest first.
func (s *Service) ListSongs(ctx context.Context) ([]Song, error) {
	songs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return songs, nil
}

// LikeSong increments the like counter for a song by one.
func (s *Service) LikeSong(ctx context.Context, id int64) (*Song, error) {
	updated, err := s.repo.IncrementLikes(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}

// DownloadURL returns a presigned, time-limited URL for the song's audio.
func (s *Service) DownloadURL(ctx context.Context, id int64) (string, error) {
	key, err := s.lookupKey(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return url, nil
}

// OpenStream opens the song's audio for proxying to a client. The caller
// must close the returned reader.
func (s *Service) OpenStream(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	key, err := s.lookupKey(ctx, id)
	if err != nil {
		return nil, "", err
	}
	rc, contentType, err := s.blobs.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, "", fmt.Errorf("%w: audio object missing", ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if contentType == "" {
		contentType = audioContentType
	}
	return rc, contentType, nil
}

// Upload is the result of a store-only upload (no metadata row).
type Upload struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// StoreUpload validates an MP3 and writes it to blob storage without
// creating a metadata row.
func (s *Service) StoreUpload(ctx context.Context, filename string, file io.ReadSeeker, size int64) (*Upload, error) {
	if err := s.sniff(filename, file); err != nil {
		return nil, err
	}

	fileID := uuid.NewString()
	key := fmt.Sprintf("uploads/%s.mp3", fileID)

	if err := s.blobs.Put(ctx, key, file, size, audioContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &Upload{FileID: fileID, Filename: filename}, nil
}

// sniff reads the file header, validates it, and rewinds the stream so the
// full payload is available to storage. No store is touched on failure.
func (s *Service) sniff(filename string, file io.ReadSeeker) error {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("%w: file too short", ErrInvalidFormat)
	}
	if err := ValidateMP3(filename, header); err != nil {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	return nil
}

// lookupKey resolves a song id to its blob key, preserving ErrNotFound.
func (s *Service) lookupKey(ctx context.Context, id int64) (string, error) {
	key, err := s.repo.GetSongKey(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return key, nil
}
