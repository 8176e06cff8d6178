package policy

import (
	"testing"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
)

const (
	adminID    = 1
	assigneeID = 2
	strangerID = 3
	authorID   = 4
)

func testTask() *models.Task {
	task := &models.Task{AssignedToID: assigneeID, AssignedByID: adminID}
	task.ID = 10
	return task
}

func testComment() *models.Comment {
	return &models.Comment{ID: "c-1", UserID: authorID, Comment: "looks good"}
}

// TestDecideCrossProduct walks the full {role} x {operation} x
// {relationship-to-task} grid.
func TestDecideCrossProduct(t *testing.T) {
	task := testTask()
	comment := testComment()

	admin := Identity{ID: adminID, Role: types.RoleAdmin}
	assignee := Identity{ID: assigneeID, Role: types.RoleStaff}
	stranger := Identity{ID: strangerID, Role: types.RoleStaff}
	author := Identity{ID: authorID, Role: types.RoleStaff}

	cases := []struct {
		name     string
		identity Identity
		op       Operation
		want     bool
	}{
		// Task creation is admin-only.
		{"admin creates task", admin, OpCreateTask, true},
		{"assignee creates task", assignee, OpCreateTask, false},
		{"stranger creates task", stranger, OpCreateTask, false},

		// Full edit and delete are admin-only.
		{"admin edits task", admin, OpUpdateTask, true},
		{"assignee edits task", assignee, OpUpdateTask, false},
		{"admin deletes task", admin, OpDeleteTask, true},
		{"assignee deletes task", assignee, OpDeleteTask, false},
		{"stranger deletes task", stranger, OpDeleteTask, false},

		// Listing all tasks is admin-only.
		{"admin lists all", admin, OpListAllTasks, true},
		{"assignee lists all", assignee, OpListAllTasks, false},

		// Viewing is admin or assignee.
		{"admin views task", admin, OpViewTask, true},
		{"assignee views task", assignee, OpViewTask, true},
		{"stranger views task", stranger, OpViewTask, false},
		{"admin views comments", admin, OpViewComments, true},
		{"assignee views comments", assignee, OpViewComments, true},
		{"stranger views comments", stranger, OpViewComments, false},

		// Status updates are assignee-only; administrators are not exempt.
		{"assignee updates status", assignee, OpUpdateStatus, true},
		{"admin updates status", admin, OpUpdateStatus, false},
		{"stranger updates status", stranger, OpUpdateStatus, false},

		// Commenting is admin or assignee.
		{"admin adds comment", admin, OpAddComment, true},
		{"assignee adds comment", assignee, OpAddComment, true},
		{"stranger adds comment", stranger, OpAddComment, false},

		// Employee management is admin-only.
		{"admin manages employees", admin, OpManageEmployees, true},
		{"assignee manages employees", assignee, OpManageEmployees, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.identity, tc.op, task, nil)

			if got.Allowed != tc.want {
				t.Errorf("Decide(%+v, %v) = %v, want allowed=%v (reason: %q)",
					tc.identity, tc.op, got.Allowed, tc.want, got.Reason)
			}

			if !got.Allowed && got.Reason == "" {
				t.Error("deny decision carries no reason")
			}
		})
	}

	t.Run("comment deletion", func(t *testing.T) {
		cases := []struct {
			name     string
			identity Identity
			want     bool
		}{
			{"author deletes own comment", author, true},
			{"admin deletes any comment", admin, true},
			{"assignee deletes another's comment", assignee, false},
			{"stranger deletes another's comment", stranger, false},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := Decide(tc.identity, OpDeleteComment, task, comment)

				if got.Allowed != tc.want {
					t.Errorf("Decide(%+v, OpDeleteComment) = %v, want %v", tc.identity, got.Allowed, tc.want)
				}
			})
		}
	})
}

// TestDecideNilTask verifies that per-task operations deny rather than panic
// when no task is in scope.
func TestDecideNilTask(t *testing.T) {
	staff := Identity{ID: assigneeID, Role: types.RoleStaff}

	for _, op := range []Operation{OpViewTask, OpUpdateStatus, OpAddComment, OpViewComments} {
		if got := Decide(staff, op, nil, nil); got.Allowed {
			t.Errorf("Decide(staff, %v, nil task) allowed, want deny", op)
		}
	}
}

// TestDecideNilComment verifies comment deletion denies for staff when no
// comment is resolved.
func TestDecideNilComment(t *testing.T) {
	staff := Identity{ID: authorID, Role: types.RoleStaff}

	if got := Decide(staff, OpDeleteComment, testTask(), nil); got.Allowed {
		t.Error("Decide(staff, OpDeleteComment, nil comment) allowed, want deny")
	}
}
