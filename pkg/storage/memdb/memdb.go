package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"videocomments/pkg/models"
	"videocomments/pkg/storage"
)

type Store struct {
	mu       sync.Mutex
	comments map[string][]models.Comment
	versions map[string]uint64
	now      func() time.Time
}

func New() *Store {
	db := Store{
		comments: make(map[string][]models.Comment),
		versions: make(map[string]uint64),
		now:      time.Now,
	}

	return &db
}

func (db *Store) Comments(ctx context.Context, videoID string) ([]models.Comment, error) {
	if videoID == "" {
		return nil, storage.ErrVideoIDNotProvided
	}

	db.mu.Lock()
	comments := make([]models.Comment, len(db.comments[videoID]))
	copy(comments, db.comments[videoID])
	db.mu.Unlock()

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	return comments, nil
}

// CreateComment assigns a fresh ID. Zero timestamps are set to the current
// time.
func (db *Store) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	if c.VideoID == "" {
		return models.Comment{}, storage.ErrVideoIDNotProvided
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Comment{}, err
	}
	c.ID = id.String()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = db.now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	// Newest first, so a listing of comments created in order needs no sorting.
	db.comments[c.VideoID] = append([]models.Comment{c}, db.comments[c.VideoID]...)
	db.versions[c.VideoID]++

	return c, nil
}

func (db *Store) Version(ctx context.Context, videoID string) (uint64, error) {
	if videoID == "" {
		return 0, storage.ErrVideoIDNotProvided
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.versions[videoID], nil
}
