// Package logger records HTTP responses for access log entries.
package logger

import (
	"net/http"
	"time"
)

// Recorder wraps a ResponseWriter and remembers the status code and the
// number of body bytes written.
type Recorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func New(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *Recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *Recorder) Status() int {
	return r.status
}

func (r *Recorder) Bytes() int {
	return r.bytes
}

type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	Bytes      int       `json:"bytes"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
}

// NewEntry builds the access log entry of a finished request.
func NewEntry(service, reqID string, r *http.Request, rec *Recorder, start time.Time) Entry {
	return Entry{
		Timestamp:  time.Now(),
		IP:         ClientIP(r),
		StatusCode: rec.Status(),
		Bytes:      rec.Bytes(),
		RequestID:  reqID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Duration:   time.Since(start).Seconds(),
		Service:    service,
	}
}

func ClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	return ip
}
