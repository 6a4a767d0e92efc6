// Package api hosts a comments widget over HTTP: it serves the rendered
// fragment and forwards browser events to the widget.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"videocomments/pkg/render"
	"videocomments/pkg/report"
	"videocomments/pkg/widget"
)

const defaultLoadWait = 10 * time.Second

type API struct {
	ServiceName string
	// LoadWait bounds how long a video change waits for its comments.
	LoadWait time.Duration

	r   *mux.Router
	w   *widget.Widget
	rep *report.Reporter
	kw  report.MessageWriter
}

// New returns the host API of w. kw may be nil, then access logs are not
// shipped to Kafka.
func New(name string, w *widget.Widget, rep *report.Reporter, kw report.MessageWriter) *API {
	api := API{
		ServiceName: name,
		LoadWait:    defaultLoadWait,
		r:           mux.NewRouter(),
		w:           w,
		rep:         rep,
		kw:          kw,
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	api.r.HandleFunc("/widget", api.widgetHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/widget/state", api.stateHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/widget/video/{videoId}", api.videoHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/widget/refresh", api.refreshHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/widget/input", api.inputHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/widget/submit", api.submitHandler).Methods(http.MethodPost)
}

func (api *API) widgetHandler(w http.ResponseWriter, r *http.Request) {
	api.writeFragment(w, r)
}

// stateHandler includes the last failure unless a later load or create
// succeeded.
func (api *API) stateHandler(w http.ResponseWriter, r *http.Request) {
	var resp StateResponse
	if api.rep != nil {
		if last := api.rep.Last(); last != nil {
			resp.Error = last.Error()
			resp.ErrorTime = &last.Time
		}
	}

	api.writeResponse(w, r, http.StatusOK, resp)
}

func (api *API) resolveFailures() {
	if api.rep != nil {
		api.rep.Resolve(time.Now())
	}
}

func (api *API) videoHandler(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["videoId"]
	api.waitLoad(w, r, api.w.SetVideo(videoID))
}

func (api *API) refreshHandler(w http.ResponseWriter, r *http.Request) {
	api.waitLoad(w, r, api.w.Refresh())
}

func (api *API) waitLoad(w http.ResponseWriter, r *http.Request, task *widget.Task) {
	sID := shorten(GetRequestID(r.Context()))

	ctx, cancel := context.WithTimeout(r.Context(), api.LoadWait)
	defer cancel()

	err := task.Wait(ctx)
	var f *widget.Failure
	switch {
	case err == nil:
		api.resolveFailures()
		api.writeState(w, r, http.StatusOK, "")
	case errors.Is(err, widget.ErrSuperseded):
		api.writeState(w, r, http.StatusOK, "")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// The load goes on without the client.
		log.Debugf("[waitLoad][%s] comments of video %s still loading: %v", sID, task.VideoID, err)
		api.writeState(w, r, http.StatusAccepted, "")
	case errors.Is(err, widget.ErrNoVideo):
		api.writeState(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, widget.ErrClosed):
		api.writeState(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &f):
		log.Debugf("[waitLoad][%s] %v", sID, f)
		api.writeResponse(w, r, http.StatusBadGateway, StateResponse{Error: f.Error(), ErrorTime: &f.Time})
	default:
		log.Errorf("[waitLoad][%s] unexpected load error: %v", sID, err)
		api.writeState(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (api *API) inputHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[inputHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	api.w.SetInput(req.Value)
	api.writeState(w, r, http.StatusOK, "")
}

// submitHandler accepts JSON events from scripts and form posts from the
// rendered fragment. Form posts always get the fragment back.
func (api *API) submitHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req SubmitRequest
	isForm := !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if isForm {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request: invalid form", http.StatusBadRequest)
			log.Debugf("[submitHandler][%s] failed to parse form: %v", sID, err)
			return
		}
		desc := r.PostForm.Get("desc")
		req.Value = &desc
		req.Trigger = r.PostForm.Get("trigger")
		req.Key = r.PostForm.Get("key")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
			log.Debugf("[submitHandler][%s] failed to decode request body: %v", sID, err)
			return
		}
		defer r.Body.Close()
	}

	event, ok := eventFor(req)
	if !ok {
		http.Error(w, "Bad Request: unknown trigger", http.StatusBadRequest)
		log.Debugf("[submitHandler][%s] unknown trigger %q", sID, req.Trigger)
		return
	}

	if req.Value != nil {
		api.w.SetInput(*req.Value)
	}

	created, err := api.w.HandleEvent(r.Context(), event)
	if err == nil {
		api.resolveFailures()
		log.Debugf("[submitHandler][%s] comment %s created", sID, created.ID)
	}

	if isForm {
		api.writeFragment(w, r)
		return
	}

	var f *widget.Failure
	switch {
	case err == nil:
		api.writeState(w, r, http.StatusCreated, "")
	case errors.Is(err, widget.ErrEmptyComment), errors.Is(err, widget.ErrIgnoredEvent):
		api.writeState(w, r, http.StatusOK, "")
	case errors.Is(err, widget.ErrNoVideo):
		api.writeState(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, widget.ErrClosed):
		api.writeState(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &f):
		log.Debugf("[submitHandler][%s] %v", sID, f)
		api.writeResponse(w, r, http.StatusBadGateway, StateResponse{Error: f.Error(), ErrorTime: &f.Time})
	default:
		log.Errorf("[submitHandler][%s] unexpected submit error: %v", sID, err)
		api.writeState(w, r, http.StatusInternalServerError, err.Error())
	}
}

func eventFor(req SubmitRequest) (*widget.Event, bool) {
	switch strings.ToLower(req.Trigger) {
	case "", "click":
		return &widget.Event{Trigger: widget.Click}, true
	case "enter":
		return &widget.Event{Trigger: widget.KeyPress, Key: widget.EnterKey}, true
	case "keypress":
		return &widget.Event{Trigger: widget.KeyPress, Key: req.Key}, true
	}

	return nil, false
}

func (api *API) writeState(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	api.writeResponse(w, r, status, StateResponse{Error: errMsg})
}

// writeResponse fills in the current view and writes resp.
func (api *API) writeResponse(w http.ResponseWriter, r *http.Request, status int, resp StateResponse) {
	resp.View = api.w.View()

	b, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[writeState][%s] failed to encode response data: %v", shorten(GetRequestID(r.Context())), err)
		return
	}

	w.WriteHeader(status)
	w.Write(b)
}

func (api *API) writeFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Widget(api.w.View(), nil).Render(r.Context(), w); err != nil {
		log.Errorf("[writeFragment][%s] failed to render widget: %v", shorten(GetRequestID(r.Context())), err)
	}
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
