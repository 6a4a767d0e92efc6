package api

import (
	"time"

	"videocomments/pkg/widget"
)

// StateResponse carries the widget view and the last unresolved failure.
// ErrorTime tells when that failure happened.
type StateResponse struct {
	View      widget.View `json:"view"`
	Error     string      `json:"error,omitempty"`
	ErrorTime *time.Time  `json:"errorTime,omitempty"`
}

type InputRequest struct {
	Value string `json:"value"`
}

// SubmitRequest carries a compose box event. Trigger is "click", "enter" or
// "keypress"; Key is only read for "keypress". A non-nil Value replaces the
// pending input before the event is handled.
type SubmitRequest struct {
	Trigger string  `json:"trigger"`
	Key     string  `json:"key,omitempty"`
	Value   *string `json:"value,omitempty"`
}
