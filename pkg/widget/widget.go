// Package widget keeps the comment list and the compose box of one mounted
// comments widget in sync with the comments service.
//
// The list is replaced wholesale by every load and grows at the front on every
// successful create. A created comment is prepended regardless of its
// timestamp, so after mixed create/load cycles the list is not strictly sorted
// by time until the next load.
package widget

import (
	"context"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"videocomments/pkg/models"
)

const (
	Placeholder = "Add a comment..."
	ButtonLabel = "Comment"

	defaultFailureBuffer = 16
)

// Source is the comments service as seen by the widget.
type Source interface {
	Comments(ctx context.Context, videoID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment models.NewComment) (models.Comment, error)
}

type Widget struct {
	src  Source
	user models.User

	mu       sync.Mutex
	videoID  string
	videoGen uint64 // bumped on every video change
	loadSeq  uint64 // bumped on every load
	comments []models.Comment
	input    string
	loading  bool
	task     *Task
	cancel   context.CancelFunc
	closed   bool

	ctx      context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	failures chan *Failure
}

type Option func(*Widget)

// WithFailureBuffer sets how many undelivered failures the widget keeps before
// dropping new ones.
func WithFailureBuffer(n int) Option {
	return func(w *Widget) {
		if n > 0 {
			w.failures = make(chan *Failure, n)
		}
	}
}

// New returns an unmounted widget for user. Nothing is fetched until SetVideo.
func New(src Source, user models.User, opts ...Option) *Widget {
	ctx, stop := context.WithCancel(context.Background())
	w := Widget{
		src:      src,
		user:     user,
		comments: []models.Comment{},
		ctx:      ctx,
		stop:     stop,
		failures: make(chan *Failure, defaultFailureBuffer),
	}
	for _, opt := range opts {
		opt(&w)
	}

	return &w
}

// Failures delivers load and create failures. The channel is closed by Close.
func (w *Widget) Failures() <-chan *Failure {
	return w.failures
}

// Close cancels in-flight requests, waits for them to return and closes the
// failure channel. The widget is unusable afterwards.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.comments = []models.Comment{}
	w.mu.Unlock()

	w.stop()
	w.wg.Wait()
	close(w.failures)
}

func (w *Widget) User() models.User {
	return w.user
}

func (w *Widget) VideoID() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.videoID
}

// Comments returns a copy of the local list, newest first.
func (w *Widget) Comments() []models.Comment {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.comments)
}

func (w *Widget) report(f *Failure) {
	select {
	case w.failures <- f:
	default:
		log.Warnf("[widget] failure channel full, dropping: %v", f)
	}
}

// Item is one rendered list entry. Key is the comment ID.
type Item struct {
	Key     string         `json:"key"`
	Comment models.Comment `json:"comment"`
}

// View is the rendering projection of the widget state.
type View struct {
	VideoID     string `json:"videoId"`
	Avatar      string `json:"avatar"`
	Input       string `json:"input"`
	Placeholder string `json:"placeholder"`
	ButtonLabel string `json:"buttonLabel"`
	Loading     bool   `json:"loading"`
	Items       []Item `json:"items"`
}

func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := make([]Item, 0, len(w.comments))
	for _, c := range w.comments {
		items = append(items, Item{Key: c.ID, Comment: c})
	}

	return View{
		VideoID:     w.videoID,
		Avatar:      w.user.Img,
		Input:       w.input,
		Placeholder: Placeholder,
		ButtonLabel: ButtonLabel,
		Loading:     w.loading,
		Items:       items,
	}
}
