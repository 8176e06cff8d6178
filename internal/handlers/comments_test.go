package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/taskdeck/taskdeck/internal/types"
)

func TestAddCommentValidation(t *testing.T) {
	r := setupServer(t)
	admin := createUser(t, "Ada", "ada@example.com", types.RoleAdmin, true)
	assignee := createUser(t, "Sam", "sam@example.com", types.RoleStaff, true)

	task := seedTask(t, assignee, admin, types.StatusPending)
	path := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	t.Run("empty comment", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path, bearer(t, assignee), map[string]interface{}{"comment": "  "})
		wantStatus(t, w, http.StatusBadRequest)
	})

	t.Run("too short", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path, bearer(t, assignee), map[string]interface{}{"comment": "ok"})
		wantStatus(t, w, http.StatusBadRequest)
	})
}

func TestAddCommentAuthorization(t *testing.T) {
	r := setupServer(t)
	admin := createUser(t, "Ada", "ada@example.com", types.RoleAdmin, true)
	assignee := createUser(t, "Sam", "sam@example.com", types.RoleStaff, true)
	stranger := createUser(t, "Bea", "bea@example.com", types.RoleStaff, true)

	task := seedTask(t, assignee, admin, types.StatusPending)
	path := fmt.Sprintf("/api/tasks/%d/comments", task.ID)
	payload := map[string]interface{}{"comment": "status looks fine"}

	t.Run("stranger is forbidden", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path, bearer(t, stranger), payload)
		wantStatus(t, w, http.StatusForbidden)
	})

	t.Run("assignee is allowed", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path, bearer(t, assignee), payload)
		wantStatus(t, w, http.StatusCreated)
	})

	t.Run("admin is allowed", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path, bearer(t, admin), payload)
		wantStatus(t, w, http.StatusCreated)
	})
}

// TestListCommentsPagination verifies newest-first ordering and the offset
// pagination over the embedded log.
func TestListCommentsPagination(t *testing.T) {
	r := setupServer(t)
	admin := createUser(t, "Ada", "ada@example.com", types.RoleAdmin, true)
	assignee := createUser(t, "Sam", "sam@example.com", types.RoleStaff, true)

	task := seedTask(t, assignee, admin, types.StatusPending)
	path := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	for _, text := range []string{"first note", "second note", "third note"} {
		w := do(t, r, http.MethodPost, path, bearer(t, assignee), map[string]interface{}{"comment": text})
		wantStatus(t, w, http.StatusCreated)
	}

	w := do(t, r, http.MethodGet, path+"?page=1&limit=2", bearer(t, assignee), nil)
	wantStatus(t, w, http.StatusOK)

	body := decode(t, w)
	comments, _ := dataField(t, body, "comments").([]interface{})

	if len(comments) != 2 {
		t.Fatalf("page 1 holds %d comments, want 2", len(comments))
	}

	first := comments[0].(map[string]interface{})
	second := comments[1].(map[string]interface{})

	if first["comment"] != "third note" || second["comment"] != "second note" {
		t.Errorf("page 1 = [%v, %v], want newest first", first["comment"], second["comment"])
	}

	author, _ := first["user"].(map[string]interface{})

	if author["email"] != assignee.Email {
		t.Errorf("comment author = %v, want %s", author, assignee.Email)
	}

	pagination, _ := dataField(t, body, "pagination").(map[string]interface{})

	if pagination["total"].(float64) != 3 || pagination["has_next_page"] != true {
		t.Errorf("pagination = %v, want total=3 with a next page", pagination)
	}

	w = do(t, r, http.MethodGet, path+"?page=2&limit=2", bearer(t, assignee), nil)
	wantStatus(t, w, http.StatusOK)

	comments, _ = dataField(t, decode(t, w), "comments").([]interface{})

	if len(comments) != 1 || comments[0].(map[string]interface{})["comment"] != "first note" {
		t.Errorf("page 2 = %v, want just the oldest comment", comments)
	}
}

func TestDeleteComment(t *testing.T) {
	r := setupServer(t)
	admin := createUser(t, "Ada", "ada@example.com", types.RoleAdmin, true)
	author := createUser(t, "Sam", "sam@example.com", types.RoleStaff, true)
	other := createUser(t, "Bea", "bea@example.com", types.RoleStaff, true)

	task := seedTask(t, author, admin, types.StatusPending)
	commentsPath := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	w := do(t, r, http.MethodPost, commentsPath, bearer(t, author), map[string]interface{}{"comment": "my note"})
	wantStatus(t, w, http.StatusCreated)

	comment, _ := dataField(t, decode(t, w), "comment").(map[string]interface{})
	commentID := comment["id"].(string)
	deletePath := fmt.Sprintf("%s/%s", commentsPath, commentID)

	t.Run("non-author staff is forbidden and the comment survives", func(t *testing.T) {
		w := do(t, r, http.MethodDelete, deletePath, bearer(t, other), nil)
		wantStatus(t, w, http.StatusForbidden)

		stored := reloadTask(t, task.ID)
		comments, err := stored.CommentLog()

		if err != nil {
			t.Fatalf("failed to decode comment log: %v", err)
		}

		if len(comments) != 1 {
			t.Errorf("comment log holds %d entries after forbidden delete, want 1", len(comments))
		}
	})

	t.Run("unknown comment id", func(t *testing.T) {
		w := do(t, r, http.MethodDelete, commentsPath+"/no-such-comment", bearer(t, author), nil)
		wantStatus(t, w, http.StatusNotFound)
	})

	t.Run("author deletes own comment", func(t *testing.T) {
		w := do(t, r, http.MethodDelete, deletePath, bearer(t, author), nil)
		wantStatus(t, w, http.StatusOK)

		stored := reloadTask(t, task.ID)
		comments, err := stored.CommentLog()

		if err != nil {
			t.Fatalf("failed to decode comment log: %v", err)
		}

		if len(comments) != 0 {
			t.Errorf("comment log holds %d entries after delete, want 0", len(comments))
		}
	})

	t.Run("admin deletes someone else's comment", func(t *testing.T) {
		w := do(t, r, http.MethodPost, commentsPath, bearer(t, author), map[string]interface{}{"comment": "another note"})
		wantStatus(t, w, http.StatusCreated)

		comment, _ := dataField(t, decode(t, w), "comment").(map[string]interface{})

		w = do(t, r, http.MethodDelete, fmt.Sprintf("%s/%v", commentsPath, comment["id"]), bearer(t, admin), nil)
		wantStatus(t, w, http.StatusOK)
	})
}
