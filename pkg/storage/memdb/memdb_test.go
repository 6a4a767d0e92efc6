package memdb

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"videocomments/pkg/models"
	"videocomments/pkg/storage"
)

func TestDB_CreateComment(t *testing.T) {
	db := New()
	db.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	got, err := db.CreateComment(context.Background(), models.Comment{UserID: "u1", VideoID: "v1", Desc: "hi"})
	if err != nil {
		t.Fatalf("unexpected error while adding comment: %v", err)
	}

	if got.ID == "" {
		t.Error("want generated comment ID")
	}
	wantTime := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if !got.CreatedAt.Equal(wantTime) || !got.UpdatedAt.Equal(wantTime) {
		t.Errorf("want timestamps %v, got %v and %v", wantTime, got.CreatedAt, got.UpdatedAt)
	}
	if len(db.comments["v1"]) != 1 {
		t.Errorf("want comments in DB %d, got comments in DB %d", 1, len(db.comments["v1"]))
	}
}

func TestDB_CreateCommentWithoutVideo(t *testing.T) {
	db := New()

	_, err := db.CreateComment(context.Background(), models.Comment{Desc: "hi"})
	if !errors.Is(err, storage.ErrVideoIDNotProvided) {
		t.Errorf("want error %v, got %v", storage.ErrVideoIDNotProvided, err)
	}
	if len(db.comments) != 0 {
		t.Errorf("want empty DB, got %v", db.comments)
	}
}

func TestDB_CreateCommentStoresTextAsIs(t *testing.T) {
	db := New()

	got, err := db.CreateComment(context.Background(), models.Comment{VideoID: "v1", Desc: "  "})
	if err != nil {
		t.Fatalf("unexpected error while adding comment: %v", err)
	}
	if got.Desc != "  " {
		t.Errorf("want text stored unchanged, got %q", got.Desc)
	}
}

func TestDB_Comments(t *testing.T) {
	db := New()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	testComments := []models.Comment{
		{VideoID: "v1", Desc: "first", CreatedAt: base},
		{VideoID: "v2", Desc: "other video", CreatedAt: base.Add(time.Minute)},
		{VideoID: "v1", Desc: "third", CreatedAt: base.Add(2 * time.Minute)},
		// Created last but older, as with imported comments.
		{VideoID: "v1", Desc: "backdated", CreatedAt: base.Add(-time.Hour)},
	}
	for _, c := range testComments {
		if _, err := db.CreateComment(context.Background(), c); err != nil {
			t.Fatalf("unexpected error while adding comments: %v", err)
		}
	}

	got, err := db.Comments(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Comments returned error: %v", err)
	}

	var gotDescs []string
	for _, c := range got {
		gotDescs = append(gotDescs, c.Desc)
	}
	wantDescs := []string{"third", "first", "backdated"}
	if !reflect.DeepEqual(wantDescs, gotDescs) {
		t.Errorf("want comments %v, got %v", wantDescs, gotDescs)
	}

	empty, err := db.Comments(context.Background(), "v3")
	if err != nil {
		t.Fatalf("Comments returned error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("want empty non-nil list, got %#v", empty)
	}

	if _, err := db.Comments(context.Background(), ""); !errors.Is(err, storage.ErrVideoIDNotProvided) {
		t.Errorf("want ErrVideoIDNotProvided, got %v", err)
	}
}

func TestDB_CommentsReturnsCopy(t *testing.T) {
	db := New()
	if _, err := db.CreateComment(context.Background(), models.Comment{VideoID: "v1", Desc: "hi"}); err != nil {
		t.Fatal(err)
	}

	got, _ := db.Comments(context.Background(), "v1")
	got[0].Desc = "changed"

	again, _ := db.Comments(context.Background(), "v1")
	if again[0].Desc != "hi" {
		t.Errorf("want stored text %q, got %q", "hi", again[0].Desc)
	}
}

func TestDB_Version(t *testing.T) {
	db := New()

	v0, _ := db.Version(context.Background(), "v1")
	db.CreateComment(context.Background(), models.Comment{VideoID: "v2", Desc: "other"})
	v1, _ := db.Version(context.Background(), "v1")
	if v0 != v1 {
		t.Errorf("want version unchanged by other videos, got %d and %d", v0, v1)
	}

	db.CreateComment(context.Background(), models.Comment{VideoID: "v1", Desc: "hi"})
	v2, _ := db.Version(context.Background(), "v1")
	if v2 == v1 {
		t.Errorf("want version changed after create, got %d", v2)
	}
}

func TestDB_Concurrent(t *testing.T) {
	db := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db.CreateComment(context.Background(), models.Comment{VideoID: "v1", Desc: "hi"})
			db.Comments(context.Background(), "v1")
		}()
	}
	wg.Wait()

	got, _ := db.Comments(context.Background(), "v1")
	if len(got) != 50 {
		t.Errorf("want comments count %d, got %d", 50, len(got))
	}
}
