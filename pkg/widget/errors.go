package widget

import (
	"errors"
	"fmt"
	"time"

	"videocomments/pkg/remote"
)

var (
	ErrNoVideo      = errors.New("video ID not provided")
	ErrEmptyComment = errors.New("empty comment")
	ErrIgnoredEvent = errors.New("event does not submit")
	ErrSuperseded   = errors.New("superseded by a newer request")
	ErrClosed       = errors.New("widget closed")
)

type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
)

type Kind int

const (
	// NetworkFailure: the request never reached the service or no response came back.
	NetworkFailure Kind = iota + 1
	// ServerFailure: non-2xx status or an unreadable response body.
	ServerFailure
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case ServerFailure:
		return "server failure"
	}
	return "unknown failure"
}

// Failure is a classified load or create error. It is returned to the caller
// and also delivered on the widget's failure channel.
type Failure struct {
	Op         Op
	Kind       Kind
	VideoID    string
	StatusCode int
	Time       time.Time
	Err        error
}

func newFailure(op Op, videoID string, err error) *Failure {
	f := &Failure{
		Op:      op,
		Kind:    NetworkFailure,
		VideoID: videoID,
		Time:    time.Now(),
		Err:     err,
	}

	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) {
		f.Kind = ServerFailure
		f.StatusCode = serverErr.StatusCode
	}

	return f
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s comments of video %q: %s: %v", f.Op, f.VideoID, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
