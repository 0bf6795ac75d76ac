// Package song manages uploaded songs: their metadata rows and audio blobs.
package song

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Song represents one uploaded track. song_key identifies the audio object
// in blob storage and never changes after insert.
type Song struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Likes   int    `json:"likes"`
	SongKey string `json:"song_key"`
}

// ErrNotFound is returned when a song does not exist.
var ErrNotFound = errors.New("song not found")

// Repository handles all song database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new song with zero likes and returns the created record.
func (r *Repository) Create(ctx context.Context, title, songKey string) (*Song, error) {
	s := &Song{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO songs (title, likes, song_key)
		 VALUES ($1, 0, $2)
		 RETURNING id, title, likes, song_key`,
		title, songKey,
	).Scan(&s.ID, &s.Title, &s.Likes, &s.SongKey)
	if err != nil {
		return nil, fmt.Errorf("create song: %w", err)
	}
	return s, nil
}

// ListAll returns every song ordered newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Song, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, likes, song_key FROM songs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var s Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Likes, &s.SongKey); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return songs, nil
}

// IncrementLikes adds one like in a single atomic update and returns the
// updated row. Concurrent likes on the same id cannot lose updates because
// the increment happens inside the UPDATE itself.
func (r *Repository) IncrementLikes(ctx context.Context, id int64) (*Song, error) {
	s := &Song{}
	err := r.db.QueryRow(ctx,
		`UPDATE songs SET likes = likes + 1
		 WHERE id = $1
		 RETURNING id, title, likes, song_key`,
		id,
	).Scan(&s.ID, &s.Title, &s.Likes, &s.SongKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment likes: %w", err)
	}
	return s, nil
}

// GetSongKey returns the blob key for a song.
func (r *Repository) GetSongKey(ctx context.Context, id int64) (string, error) {
	var key string
	err := r.db.QueryRow(ctx,
		`SELECT song_key FROM songs WHERE id = $1`, id,
	).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get song key: %w", err)
	}
	return key, nil
}
