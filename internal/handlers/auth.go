package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
	"github.com/taskdeck/taskdeck/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

// validatePassword enforces the registration password rules: at least 8
// characters with an upper, a lower, a digit and a symbol.
func validatePassword(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		errs = append(errs, "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	}

	return errs
}

func validateRegistration(req RegisterRequest) []string {
	var errs []string

	if strings.TrimSpace(req.FirstName) == "" {
		errs = append(errs, "First name is required")
	}

	if strings.TrimSpace(req.LastName) == "" {
		errs = append(errs, "Last name is required")
	}

	if req.Email == "" {
		errs = append(errs, "Email is required")
	} else if !emailPattern.MatchString(req.Email) {
		errs = append(errs, "Please enter a valid email address")
	}

	errs = append(errs, validatePassword(req.Password)...)

	if req.Role != "" && req.Role != types.RoleAdmin && req.Role != types.RoleStaff {
		errs = append(errs, "Role must be either admin or staff")
	}

	return errs
}

func Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validateRegistration(req); len(errs) > 0 {
		ctx.JSON(http.StatusBadRequest, types.ValidationError("Validation failed", errs))
		return
	}

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, types.Error("User with this email already exists"))
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	role := req.Role

	if role == "" {
		role = types.RoleStaff
	}

	newUser := models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		IsActive:     true,
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	token, err := auth.GenerateJWT(newUser.ID, newUser.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	ctx.JSON(http.StatusCreated, types.OK("User registered successfully", gin.H{
		"token": token,
		"user":  userResponse(newUser),
	}))
}

func Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Please provide email and password"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User

	err := db.DB.Where("email = ?", req.Email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, types.Error("Invalid email or password"))
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("Invalid email or password"))
		return
	}

	if !user.IsActive {
		ctx.JSON(http.StatusForbidden, types.Error("Account deactivated. Please contact an administrator."))
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	ctx.JSON(http.StatusOK, types.OK("Login successful", gin.H{
		"token": token,
		"user":  userResponse(user),
	}))
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	ctx.JSON(http.StatusOK, types.OK("Current user", gin.H{
		"user": userResponse(user),
	}))
}
