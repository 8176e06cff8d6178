package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
)

func userSummary(user models.User) types.UserSummary {
	return types.UserSummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}

func userResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
	}
}

func taskResponse(task *models.Task) types.TaskResponse {
	comments, err := task.CommentLog()

	if err != nil {
		comments = nil
	}

	return types.TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Category:    task.Category,
		DueDate:     task.DueDate,
		AssignedTo:  userSummary(task.AssignedTo),
		AssignedBy:  userSummary(task.AssignedBy),
		Comments:    len(comments),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func taskResponses(tasks []models.Task) []types.TaskResponse {
	responses := make([]types.TaskResponse, 0, len(tasks))

	for i := range tasks {
		responses = append(responses, taskResponse(&tasks[i]))
	}

	return responses
}

// parseIDParam reads a numeric path parameter. A malformed id is a client
// mistake, not an internal failure, so it maps to 400.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)

	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid "+name+" format"))
		return 0, false
	}

	return uint(id), true
}

// parsePageQuery reads page/limit query parameters, rejecting malformed
// values and clamping the rest to sane bounds.
func parsePageQuery(ctx *gin.Context, defaultLimit int) (page, limit int, ok bool) {
	page = 1
	limit = defaultLimit

	if raw := ctx.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)

		if err != nil || parsed < 1 {
			ctx.JSON(http.StatusBadRequest, types.Error("Invalid page format"))
			return 0, 0, false
		}

		page = parsed
	}

	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)

		if err != nil || parsed < 1 {
			ctx.JSON(http.StatusBadRequest, types.Error("Invalid limit format"))
			return 0, 0, false
		}

		limit = parsed
	}

	return page, limit, true
}
