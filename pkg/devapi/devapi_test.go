package devapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"videocomments/pkg/models"
	"videocomments/pkg/remote"
	"videocomments/pkg/storage/memdb"
)

func postComment(t *testing.T, api *API, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/comments", bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)
	return rr
}

func TestAPI_createCommentHandler(t *testing.T) {
	api := New("comments-dev", memdb.New(), map[string]string{"secret": "u1"})

	rr := postComment(t, api, models.NewComment{Desc: "nice video", VideoID: "v1"}, &http.Cookie{Name: TokenCookie, Value: "secret"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("want status code %v, got status code %v", http.StatusCreated, rr.Code)
	}

	var got models.Comment
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID == "" || got.UserID != "u1" || got.VideoID != "v1" || got.Desc != "nice video" {
		t.Errorf("unexpected comment %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("want creation time set")
	}
}

func TestAPI_createCommentHandlerErrors(t *testing.T) {
	api := New("comments-dev", memdb.New(), map[string]string{"secret": "u1"})
	session := &http.Cookie{Name: TokenCookie, Value: "secret"}

	tests := []struct {
		name     string
		body     any
		cookie   *http.Cookie
		wantCode int
	}{
		{name: "no session", body: models.NewComment{Desc: "hi", VideoID: "v1"}, wantCode: http.StatusUnauthorized},
		{name: "unknown session", body: models.NewComment{Desc: "hi", VideoID: "v1"}, cookie: &http.Cookie{Name: TokenCookie, Value: "other"}, wantCode: http.StatusUnauthorized},
		{name: "no video", body: models.NewComment{Desc: "hi"}, cookie: session, wantCode: http.StatusBadRequest},
		{name: "invalid JSON", body: "not an object", cookie: session, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postComment(t, api, tt.body, tt.cookie)
			if rr.Code != tt.wantCode {
				t.Errorf("want status code %v, got status code %v", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestAPI_commentsHandler(t *testing.T) {
	api := New("comments-dev", memdb.New(), nil)

	for _, desc := range []string{"first", "second", "third"} {
		if rr := postComment(t, api, models.NewComment{Desc: desc, VideoID: "v1"}, nil); rr.Code != http.StatusCreated {
			t.Fatalf("want status code %v, got status code %v", http.StatusCreated, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/comments/v1", nil)
	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("want Cache-Control no-cache, got %q", cc)
	}

	var comments []models.Comment
	if err := json.NewDecoder(rr.Body).Decode(&comments); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var got []string
	for _, c := range comments {
		got = append(got, c.Desc)
	}
	want := []string{"third", "second", "first"}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("want comments %v, got %v", want, got)
	}
}

func TestAPI_commentsHandlerEmpty(t *testing.T) {
	api := New("comments-dev", memdb.New(), nil)

	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/comments/v1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}
	if body := bytes.TrimSpace(rr.Body.Bytes()); string(body) != "[]" {
		t.Errorf("want empty JSON array, got %s", body)
	}
}

func TestAPI_commentsHandlerETag(t *testing.T) {
	api := New("comments-dev", memdb.New(), nil)
	postComment(t, api, models.NewComment{Desc: "hi", VideoID: "v1"}, nil)

	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/comments/v1", nil))
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("want ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/comments/v1", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotModified {
		t.Errorf("want status code %v, got status code %v", http.StatusNotModified, rr.Code)
	}

	postComment(t, api, models.NewComment{Desc: "again", VideoID: "v1"}, nil)
	rr = httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("want status code %v after a change, got status code %v", http.StatusOK, rr.Code)
	}
	if rr.Header().Get("ETag") == etag {
		t.Error("want new ETag after a change")
	}
}

// The remote client and the dev service must agree on the wire format.
func TestAPI_RemoteClient(t *testing.T) {
	api := New("comments-dev", memdb.New(), map[string]string{"secret": "u1"})
	srv := httptest.NewServer(api.Router())
	defer srv.Close()

	client, err := remote.New(remote.Config{
		BaseURL: srv.URL,
		Cache:   true,
		Cookies: map[string]string{TokenCookie: "secret"},
	})
	if err != nil {
		t.Fatalf("failed to create remote client: %v", err)
	}

	created, err := client.CreateComment(context.Background(), models.NewComment{Desc: "hi", VideoID: "v1"})
	if err != nil {
		t.Fatalf("unexpected error creating comment: %v", err)
	}
	if created.UserID != "u1" {
		t.Errorf("want author u1, got %q", created.UserID)
	}

	for i := 0; i < 2; i++ {
		got, err := client.Comments(context.Background(), "v1")
		if err != nil {
			t.Fatalf("unexpected error fetching comments: %v", err)
		}
		if len(got) != 1 || got[0].ID != created.ID {
			t.Errorf("want comments [%s], got %+v", created.ID, got)
		}
	}
}
