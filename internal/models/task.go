package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comment is one entry of a task's embedded comment log. Comments live
// inside the parent task row as a JSON array, so a status change and an
// appended comment persist in a single write. They are addressable by ID
// within the task but never stored on their own.
type Comment struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

type Task struct {
	gorm.Model

	Title        string `gorm:"not null"`
	Description  string `gorm:"not null"`
	AssignedToID uint   `gorm:"not null;index"`
	AssignedByID uint   `gorm:"not null;index"`
	Status       string `gorm:"not null;default:pending;index"`
	Priority     string `gorm:"not null;default:medium"`
	Category     string
	DueDate      *time.Time
	Comments     datatypes.JSON

	// Relationships
	AssignedTo User `gorm:"foreignKey:AssignedToID"`
	AssignedBy User `gorm:"foreignKey:AssignedByID"`
}

// CommentLog decodes the embedded comment array. A task with no comments
// yet has a NULL column, which decodes to an empty log.
func (t *Task) CommentLog() ([]Comment, error) {
	if len(t.Comments) == 0 {
		return []Comment{}, nil
	}

	var comments []Comment

	if err := json.Unmarshal(t.Comments, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// SetCommentLog replaces the embedded comment array.
func (t *Task) SetCommentLog(comments []Comment) error {
	raw, err := json.Marshal(comments)

	if err != nil {
		return err
	}

	t.Comments = datatypes.JSON(raw)
	return nil
}

// AppendComment adds a comment to the end of the log.
func (t *Task) AppendComment(comment Comment) error {
	comments, err := t.CommentLog()

	if err != nil {
		return err
	}

	return t.SetCommentLog(append(comments, comment))
}

// RemoveComment deletes the comment with the given ID from the log and
// reports whether it was present.
func (t *Task) RemoveComment(commentID string) (bool, error) {
	comments, err := t.CommentLog()

	if err != nil {
		return false, err
	}

	for i, comment := range comments {
		if comment.ID == commentID {
			if err := t.SetCommentLog(append(comments[:i], comments[i+1:]...)); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

// FindComment returns the comment with the given ID, or nil.
func (t *Task) FindComment(commentID string) (*Comment, error) {
	comments, err := t.CommentLog()

	if err != nil {
		return nil, err
	}

	for i := range comments {
		if comments[i].ID == commentID {
			return &comments[i], nil
		}
	}

	return nil, nil
}
