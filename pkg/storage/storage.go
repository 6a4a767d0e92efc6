// Package storage defines the persistence contract of the dev comments service.
package storage

import (
	"context"
	"fmt"

	"videocomments/pkg/models"
)

// ErrVideoIDNotProvided is returned for operations without the video key.
var ErrVideoIDNotProvided = fmt.Errorf("videoID not provided")

type Storage interface {
	// Comments returns the comments of a video, newest first. A video
	// without comments yields an empty list.
	Comments(ctx context.Context, videoID string) ([]models.Comment, error)
	// CreateComment stores c as is, assigning its ID and timestamps. The text
	// is not checked.
	CreateComment(ctx context.Context, c models.Comment) (models.Comment, error)
	// Version changes every time the comments of videoID change.
	Version(ctx context.Context, videoID string) (uint64, error)
}
