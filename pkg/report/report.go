// Package report is the observability side of the widget: it logs load and
// create failures and ships them to Kafka when a writer is configured.
package report

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"videocomments/pkg/widget"
)

const writeTimeout = 10 * time.Second

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type FailureEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Service    string    `json:"service"`
	Op         string    `json:"op"`
	Kind       string    `json:"kind"`
	VideoID    string    `json:"video_id"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error"`
}

type Reporter struct {
	ServiceName string

	kw MessageWriter

	mu       sync.Mutex
	last     *widget.Failure
	count    int
	resolved time.Time
}

// New returns a reporter. kw may be nil, then failures are only logged.
func New(name string, kw MessageWriter) *Reporter {
	return &Reporter{ServiceName: name, kw: kw}
}

// Run reports every failure from failures until the channel is closed or ctx
// is done.
func (r *Reporter) Run(ctx context.Context, failures <-chan *widget.Failure) {
	for {
		select {
		case <-ctx.Done():
			log.Info("[report] context cancelled, stopping")
			return
		case f, ok := <-failures:
			if !ok {
				log.Info("[report] failure channel closed, stopping")
				return
			}
			r.Report(ctx, f)
		}
	}
}

func (r *Reporter) Report(ctx context.Context, f *widget.Failure) {
	r.mu.Lock()
	if f.Time.After(r.resolved) {
		r.last = f
	}
	r.count++
	r.mu.Unlock()

	log.Errorf("[report] %v", f)

	if r.kw == nil {
		return
	}

	entry := FailureEntry{
		Timestamp:  f.Time,
		Service:    r.ServiceName,
		Op:         string(f.Op),
		Kind:       f.Kind.String(),
		VideoID:    f.VideoID,
		StatusCode: f.StatusCode,
		Error:      f.Err.Error(),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("[report] failed to marshal failure entry: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := r.kw.WriteMessages(ctx, kafka.Message{Key: []byte(f.VideoID), Value: b}); err != nil {
		log.Errorf("[report] failed to write failure to Kafka: %v", err)
		return
	}
	log.Debugf("[report] failure of video %s sent to Kafka", f.VideoID)
}

// Resolve marks failures up to t as outdated by a later success. Last no
// longer returns them, even when they are reported after the call.
func (r *Reporter) Resolve(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.After(r.resolved) {
		r.resolved = t
	}
	if r.last != nil && !r.last.Time.After(r.resolved) {
		r.last = nil
	}
}

// Last returns the most recent unresolved failure, or nil.
func (r *Reporter) Last() *widget.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.last
}

func (r *Reporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}
