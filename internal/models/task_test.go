package models

import (
	"testing"
	"time"
)

func TestCommentLogRoundTrip(t *testing.T) {
	var task Task

	comments, err := task.CommentLog()

	if err != nil {
		t.Fatalf("CommentLog on empty task failed: %v", err)
	}

	if len(comments) != 0 {
		t.Fatalf("empty task holds %d comments, want 0", len(comments))
	}

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	first := Comment{ID: "a", UserID: 1, Comment: "first", Timestamp: now}
	second := Comment{ID: "b", UserID: 2, Comment: "second", Timestamp: now.Add(time.Minute)}

	if err := task.AppendComment(first); err != nil {
		t.Fatalf("AppendComment failed: %v", err)
	}

	if err := task.AppendComment(second); err != nil {
		t.Fatalf("AppendComment failed: %v", err)
	}

	comments, err = task.CommentLog()

	if err != nil {
		t.Fatalf("CommentLog failed: %v", err)
	}

	if len(comments) != 2 || comments[0].ID != "a" || comments[1].ID != "b" {
		t.Fatalf("comment log = %+v, want [a b] in append order", comments)
	}
}

func TestRemoveComment(t *testing.T) {
	var task Task

	if err := task.AppendComment(Comment{ID: "a", UserID: 1, Comment: "first"}); err != nil {
		t.Fatalf("AppendComment failed: %v", err)
	}

	if err := task.AppendComment(Comment{ID: "b", UserID: 1, Comment: "second"}); err != nil {
		t.Fatalf("AppendComment failed: %v", err)
	}

	removed, err := task.RemoveComment("a")

	if err != nil {
		t.Fatalf("RemoveComment failed: %v", err)
	}

	if !removed {
		t.Fatal("RemoveComment(a) = false, want true")
	}

	removed, err = task.RemoveComment("missing")

	if err != nil {
		t.Fatalf("RemoveComment failed: %v", err)
	}

	if removed {
		t.Error("RemoveComment(missing) = true, want false")
	}

	comments, _ := task.CommentLog()

	if len(comments) != 1 || comments[0].ID != "b" {
		t.Errorf("comment log = %+v, want only b", comments)
	}
}

func TestFindComment(t *testing.T) {
	var task Task

	if err := task.AppendComment(Comment{ID: "a", UserID: 7, Comment: "note"}); err != nil {
		t.Fatalf("AppendComment failed: %v", err)
	}

	comment, err := task.FindComment("a")

	if err != nil {
		t.Fatalf("FindComment failed: %v", err)
	}

	if comment == nil || comment.UserID != 7 {
		t.Errorf("FindComment(a) = %+v, want UserID 7", comment)
	}

	comment, err = task.FindComment("z")

	if err != nil {
		t.Fatalf("FindComment failed: %v", err)
	}

	if comment != nil {
		t.Errorf("FindComment(z) = %+v, want nil", comment)
	}
}
