// Package devapi serves the comments service routes the widget talks to,
// backed by a storage.Storage. It is used for local development.
package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"videocomments/pkg/models"
	"videocomments/pkg/storage"
)

// TokenCookie carries the session token of the signed in user.
const TokenCookie = "access_token"

type API struct {
	ServiceName string
	DB          storage.Storage

	r *mux.Router
	// tokens maps session tokens to user IDs. When empty, comments are
	// created anonymously.
	tokens map[string]string
}

func New(name string, db storage.Storage, tokens map[string]string) *API {
	api := API{
		ServiceName: name,
		DB:          db,
		r:           mux.NewRouter(),
		tokens:      tokens,
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)

	api.r.HandleFunc("/api/comments/{videoId}", api.commentsHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/api/comments", api.createCommentHandler).Methods(http.MethodPost)
}

func (api *API) commentsHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	videoID := mux.Vars(r)["videoId"]

	version, err := api.DB.Version(r.Context(), videoID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentsHandler][%s] Version() returned error: %v", sID, err)
		return
	}
	etag := fmt.Sprintf(`"%s-%d"`, videoID, version)

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		log.Debugf("[commentsHandler][%s] comments of video %s not modified", sID, videoID)
		return
	}

	comments, err := api.DB.Comments(r.Context(), videoID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentsHandler][%s] Comments() returned error: %v", sID, err)
		return
	}

	b, err := json.Marshal(comments)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentsHandler][%s] failed to encode response data: %v", sID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
	log.Debugf("[commentsHandler][%s] %d comments of video %s sent to: %v", sID, len(comments), videoID, r.RemoteAddr)
}

func (api *API) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	userID, ok := api.user(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "You are not authenticated!")
		log.Debugf("[createCommentHandler][%s] request without valid session from %v", sID, r.RemoteAddr)
		return
	}

	var req models.NewComment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[createCommentHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	comment, err := api.DB.CreateComment(r.Context(), models.Comment{
		UserID:  userID,
		VideoID: req.VideoID,
		Desc:    req.Desc,
	})
	switch {
	case errors.Is(err, storage.ErrVideoIDNotProvided):
		writeMessage(w, http.StatusBadRequest, err.Error())
		log.Debugf("[createCommentHandler][%s] rejected comment: %v", sID, err)
		return
	case err != nil:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[createCommentHandler][%s] CreateComment() returned error: %v", sID, err)
		return
	}

	b, err := json.Marshal(comment)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[createCommentHandler][%s] failed to encode response data: %v", sID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
	log.Debugf("[createCommentHandler][%s] comment %s added to video %s", sID, comment.ID, comment.VideoID)
}

func (api *API) user(r *http.Request) (string, bool) {
	if len(api.tokens) == 0 {
		return "", true
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return "", false
	}
	userID, ok := api.tokens[cookie.Value]

	return userID, ok
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	b, _ := json.Marshal(map[string]string{"message": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

type ctxKeyRequestID struct{}

var RequestIDKey = ctxKeyRequestID{}

// requestIDMiddleware passes the caller's request ID on. Requests without one
// are served under an empty ID.
func (api *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			log.Debugf("[requestIDMiddleware] request without ID from %v", r.RemoteAddr)
		}

		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
