// Package policy holds the single authorization decision function. Every
// handler asks Decide instead of branching on roles inline, so the rules for
// an operation live in exactly one place.
package policy

import (
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
)

type Operation int

const (
	OpCreateTask Operation = iota
	OpViewTask
	OpListAllTasks
	OpUpdateTask
	OpDeleteTask
	OpUpdateStatus
	OpAddComment
	OpViewComments
	OpDeleteComment
	OpManageEmployees
)

// Identity is the minimal view of a principal the policy needs.
type Identity struct {
	ID   uint
	Role string
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide maps (identity, operation, task, comment) to an allow/deny outcome.
// task may be nil for operations that have no target yet (creation, listing);
// comment is only consulted for OpDeleteComment.
//
// Status updates are assignee-only, administrators included: the assignee
// owns the workflow of their own task, while administrators edit everything
// else through the full-update path.
func Decide(identity Identity, op Operation, task *models.Task, comment *models.Comment) Decision {
	if op == OpUpdateStatus {
		if task != nil && identity.ID == task.AssignedToID {
			return allow()
		}
		return deny("You can only update tasks assigned to you")
	}

	if identity.Role == types.RoleAdmin {
		return allow()
	}

	switch op {
	case OpViewTask, OpViewComments, OpAddComment:
		if task != nil && identity.ID == task.AssignedToID {
			return allow()
		}
		return deny("You can only access your assigned tasks")
	case OpDeleteComment:
		if comment != nil && identity.ID == comment.UserID {
			return allow()
		}
		return deny("You can only delete your own comments")
	case OpCreateTask, OpListAllTasks, OpUpdateTask, OpDeleteTask, OpManageEmployees:
		return deny("Access denied. Administrator privileges required.")
	}

	return deny("Access denied")
}
