package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
	"github.com/taskdeck/taskdeck/internal/utils"
	"gorm.io/gorm"
)

type UpdateEmployeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func ListEmployees(ctx *gin.Context) {
	page, limit, ok := parsePageQuery(ctx, 20)

	if !ok {
		return
	}

	q := db.DB.Model(&models.User{})

	if raw := ctx.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, types.Error("Invalid is_active format"))
			return
		}

		q = q.Where("is_active = ?", active)
	}

	if role := ctx.Query("role"); role != "" {
		if role != types.RoleAdmin && role != types.RoleStaff {
			ctx.JSON(http.StatusBadRequest, types.Error("Role must be either admin or staff"))
			return
		}

		q = q.Where("role = ?", role)
	}

	var total int64

	if err := q.Count(&total).Error; err != nil {
		log.Printf("Failed to count employees: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	var users []models.User

	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error

	if err != nil {
		log.Printf("Failed to list employees: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	responses := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		responses = append(responses, userResponse(user))
	}

	ctx.JSON(http.StatusOK, types.OK("Found "+strconv.Itoa(len(responses))+" employees", gin.H{
		"employees":  responses,
		"pagination": types.NewPagination(page, limit, total),
	}))
}

// loadEmployee fetches the target user, translating a missing row to 404.
func loadEmployee(ctx *gin.Context, id uint) (*models.User, bool) {
	var user models.User

	if err := db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, types.Error("Employee not found"))
		} else {
			log.Printf("Failed to fetch employee %d: %v", id, err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		}
		return nil, false
	}

	return &user, true
}

func UpdateEmployee(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	var req UpdateEmployeeRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	user, ok := loadEmployee(ctx, id)

	if !ok {
		return
	}

	updates := make(map[string]interface{})

	if req.FirstName != "" {
		updates["first_name"] = strings.TrimSpace(req.FirstName)
	}

	if req.LastName != "" {
		updates["last_name"] = strings.TrimSpace(req.LastName)
	}

	if req.Role != "" {
		if req.Role != types.RoleAdmin && req.Role != types.RoleStaff {
			ctx.JSON(http.StatusBadRequest, types.Error("Role must be either admin or staff"))
			return
		}

		updates["role"] = req.Role
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, types.Error("No valid fields to update"))
		return
	}

	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update employee %d: %v", id, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	ctx.JSON(http.StatusOK, types.OK("Employee updated successfully", gin.H{
		"employee": userResponse(*user),
	}))
}

// setEmployeeActive flips the soft-deactivation flag. Accounts referenced by
// tasks are never hard-deleted.
func setEmployeeActive(ctx *gin.Context, active bool) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	if !active && id == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, types.Error("You cannot deactivate your own account"))
		return
	}

	user, ok := loadEmployee(ctx, id)

	if !ok {
		return
	}

	if err := db.DB.Model(user).Update("is_active", active).Error; err != nil {
		log.Printf("Failed to update employee %d active flag: %v", id, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	message := "Employee deactivated successfully"

	if active {
		message = "Employee activated successfully"
	}

	ctx.JSON(http.StatusOK, types.OK(message, gin.H{
		"employee": userResponse(*user),
	}))
}

func DeactivateEmployee(ctx *gin.Context) {
	setEmployeeActive(ctx, false)
}

func ActivateEmployee(ctx *gin.Context) {
	setEmployeeActive(ctx, true)
}
