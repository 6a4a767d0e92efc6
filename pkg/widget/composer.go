package widget

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"videocomments/pkg/models"
)

const EnterKey = "Enter"

type Trigger int

const (
	Click Trigger = iota + 1
	KeyPress
)

// Event is a UI event aimed at the compose box.
type Event struct {
	Trigger Trigger
	Key     string

	defaultPrevented bool
}

// PreventDefault suppresses the host's default action, such as a form
// submission or page navigation.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.input
}

func (w *Widget) SetInput(value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.input = value
}

// Click submits the pending input as if the button was pressed.
func (w *Widget) Click(ctx context.Context) (models.Comment, error) {
	return w.HandleEvent(ctx, &Event{Trigger: Click})
}

// KeyPress submits the pending input when key is Enter and returns
// ErrIgnoredEvent for any other key.
func (w *Widget) KeyPress(ctx context.Context, key string) (models.Comment, error) {
	return w.HandleEvent(ctx, &Event{Trigger: KeyPress, Key: key})
}

// HandleEvent routes button clicks and Enter key presses to the same submit
// handler.
func (w *Widget) HandleEvent(ctx context.Context, e *Event) (models.Comment, error) {
	switch {
	case e.Trigger == Click:
		return w.submit(ctx, e)
	case e.Trigger == KeyPress && e.Key == EnterKey:
		return w.submit(ctx, e)
	}

	return models.Comment{}, ErrIgnoredEvent
}

// submit sends the trimmed pending input as a new comment of the current video.
// On success the created comment is put in front of the list and the input is
// cleared. On failure the list and the input stay as they were.
func (w *Widget) submit(ctx context.Context, e *Event) (models.Comment, error) {
	e.PreventDefault()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return models.Comment{}, ErrClosed
	}
	desc := strings.TrimSpace(w.input)
	videoID, gen := w.videoID, w.videoGen
	if desc == "" {
		w.mu.Unlock()
		return models.Comment{}, ErrEmptyComment
	}
	if videoID == "" {
		w.mu.Unlock()
		return models.Comment{}, ErrNoVideo
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	created, err := w.src.CreateComment(ctx, models.NewComment{Desc: desc, VideoID: videoID})
	if err != nil {
		f := newFailure(OpCreate, videoID, err)
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return models.Comment{}, ErrClosed
		}
		w.report(f)
		return models.Comment{}, f
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return created, ErrClosed
	}
	if gen == w.videoGen {
		w.comments = append([]models.Comment{created}, w.comments...)
	} else {
		log.Debugf("[widget] comment %s created for video %s, widget moved to %s", created.ID, videoID, w.videoID)
	}
	w.input = ""

	return created, nil
}
