package widget

import (
	"context"
	"slices"

	log "github.com/sirupsen/logrus"

	"videocomments/pkg/models"
)

// Task is one load of a video's comments.
type Task struct {
	VideoID string

	done chan struct{}
	err  error
}

func newTask(videoID string) *Task {
	return &Task{VideoID: videoID, done: make(chan struct{})}
}

func doneTask(videoID string, err error) *Task {
	t := newTask(videoID)
	t.finish(err)
	return t
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is nil until the task is done. A superseded task ends with
// ErrSuperseded, a failed one with a *Failure.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task is done or ctx expires.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetVideo mounts the widget on videoID and loads its comments. Setting the
// video the widget already shows returns the task of the last load and does
// not fetch again. A change cancels the load of the previous video.
func (w *Widget) SetVideo(videoID string) *Task {
	if videoID == "" {
		return doneTask(videoID, ErrNoVideo)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return doneTask(videoID, ErrClosed)
	}
	if w.task != nil && w.videoID == videoID {
		return w.task
	}

	w.videoID = videoID
	w.videoGen++

	return w.startLoad()
}

// Refresh loads the comments of the current video again.
func (w *Widget) Refresh() *Task {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return doneTask(w.videoID, ErrClosed)
	}
	if w.videoID == "" {
		return doneTask("", ErrNoVideo)
	}

	return w.startLoad()
}

// startLoad must be called with w.mu held.
func (w *Widget) startLoad() *Task {
	if w.cancel != nil {
		w.cancel()
	}

	ctx, cancel := context.WithCancel(w.ctx)
	w.loadSeq++
	t := newTask(w.videoID)
	w.cancel = cancel
	w.task = t
	w.loading = true

	w.wg.Add(1)
	go w.load(ctx, cancel, t, w.loadSeq)

	return t
}

func (w *Widget) load(ctx context.Context, cancel context.CancelFunc, t *Task, seq uint64) {
	defer w.wg.Done()
	defer cancel()

	comments, err := w.src.Comments(ctx, t.VideoID)

	w.mu.Lock()
	current := seq == w.loadSeq && t.VideoID == w.videoID
	closed := w.closed
	if current {
		w.loading = false
		if err == nil && !closed {
			w.comments = slices.Clone(comments)
			if w.comments == nil {
				w.comments = []models.Comment{}
			}
		}
	}
	w.mu.Unlock()

	switch {
	case closed:
		t.finish(ErrClosed)
	case !current:
		log.Debugf("[widget] discarded load of video %s: superseded", t.VideoID)
		t.finish(ErrSuperseded)
	case err != nil:
		f := newFailure(OpLoad, t.VideoID, err)
		w.report(f)
		t.finish(f)
	default:
		log.Debugf("[widget] loaded %d comments of video %s", len(comments), t.VideoID)
		t.finish(nil)
	}
}
