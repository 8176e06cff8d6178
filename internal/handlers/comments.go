package handlers

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/types"
	"github.com/taskdeck/taskdeck/internal/utils"
)

type AddCommentRequest struct {
	Comment string `json:"comment"`
}

// commentResponses resolves comment authors in one query and maps the log to
// the response shape.
func commentResponses(comments []models.Comment) ([]types.CommentResponse, error) {
	authorIDs := make([]uint, 0, len(comments))
	seen := make(map[uint]bool)

	for _, comment := range comments {
		if !seen[comment.UserID] {
			seen[comment.UserID] = true
			authorIDs = append(authorIDs, comment.UserID)
		}
	}

	authors := make(map[uint]models.User, len(authorIDs))

	if len(authorIDs) > 0 {
		var users []models.User

		if err := db.DB.Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
			return nil, err
		}

		for _, user := range users {
			authors[user.ID] = user
		}
	}

	responses := make([]types.CommentResponse, 0, len(comments))

	for _, comment := range comments {
		responses = append(responses, types.CommentResponse{
			ID:        comment.ID,
			User:      userSummary(authors[comment.UserID]),
			Comment:   comment.Comment,
			Timestamp: comment.Timestamp,
		})
	}

	return responses, nil
}

func AddComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	var req AddCommentRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	comment := strings.TrimSpace(req.Comment)

	if comment == "" {
		ctx.JSON(http.StatusBadRequest, types.Error("Please provide a comment"))
		return
	}

	if len(comment) < 3 {
		ctx.JSON(http.StatusBadRequest, types.Error("Comment must be at least 3 characters long"))
		return
	}

	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	decision := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpAddComment, task, nil)

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, types.Error(decision.Reason))
		return
	}

	newComment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    currentUser.ID,
		Comment:   comment,
		Timestamp: time.Now(),
	}

	if err := task.AppendComment(newComment); err != nil {
		log.Printf("Failed to encode comment log for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	if err := db.DB.Model(&models.Task{}).Where("id = ?", task.ID).Update("comments", task.Comments).Error; err != nil {
		log.Printf("Failed to save comment on task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	total, _ := task.CommentLog()

	BroadcastTaskEvent("comment_added", task.ID, task.Title)

	ctx.JSON(http.StatusCreated, types.OK("Comment added successfully", gin.H{
		"comment": types.CommentResponse{
			ID: newComment.ID,
			User: types.UserSummary{
				ID:        currentUser.ID,
				FirstName: currentUser.FirstName,
				LastName:  currentUser.LastName,
				Email:     currentUser.Email,
			},
			Comment:   newComment.Comment,
			Timestamp: newComment.Timestamp,
		},
		"total_comments": len(total),
	}))
}

func GetComments(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	page, limit, ok := parsePageQuery(ctx, 10)

	if !ok {
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	decision := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpViewComments, task, nil)

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, types.Error(decision.Reason))
		return
	}

	comments, err := task.CommentLog()

	if err != nil {
		log.Printf("Failed to decode comment log for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	// Newest first; the log is append-ordered so a stable sort keeps
	// same-timestamp comments in reverse insertion order.
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Timestamp.After(comments[j].Timestamp)
	})

	total := len(comments)
	start := (page - 1) * limit

	if start > total {
		start = total
	}

	end := start + limit

	if end > total {
		end = total
	}

	pageComments, err := commentResponses(comments[start:end])

	if err != nil {
		log.Printf("Failed to resolve comment authors for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	ctx.JSON(http.StatusOK, types.OK("Found "+strconv.Itoa(len(pageComments))+" comments", gin.H{
		"task_title": task.Title,
		"comments":   pageComments,
		"pagination": types.NewPagination(page, limit, int64(total)),
	}))
}

func DeleteComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	taskID, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	commentID := ctx.Param("commentId")

	if commentID == "" {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid commentId format"))
		return
	}

	task, ok := loadTask(ctx, taskID)

	if !ok {
		return
	}

	comment, err := task.FindComment(commentID)

	if err != nil {
		log.Printf("Failed to decode comment log for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	if comment == nil {
		ctx.JSON(http.StatusNotFound, types.Error("Comment not found"))
		return
	}

	decision := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpDeleteComment, task, comment)

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, types.Error(decision.Reason))
		return
	}

	if _, err := task.RemoveComment(commentID); err != nil {
		log.Printf("Failed to remove comment %s from task %d: %v", commentID, task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	if err := db.DB.Model(&models.Task{}).Where("id = ?", task.ID).Update("comments", task.Comments).Error; err != nil {
		log.Printf("Failed to save comment log for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	remaining, _ := task.CommentLog()

	ctx.JSON(http.StatusOK, types.OK("Comment deleted successfully", gin.H{
		"remaining_comments": len(remaining),
	}))
}
