package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/router"
	"github.com/taskdeck/taskdeck/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Password1!"

// setupServer wires an isolated in-memory database into the global handle
// and returns the full route table, so tests exercise the same middleware
// chain as production.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STRICT_STATUS_FLOW", "")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return router.NewRouter()
}

func createUser(t *testing.T, first, email, role string, active bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)

	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		FirstName:    first,
		LastName:     "Tester",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func bearer(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return "Bearer " + token
}

func seedTask(t *testing.T, assignee, creator models.User, status string) models.Task {
	t.Helper()

	task := models.Task{
		Title:        "Prepare quarterly report",
		Description:  "Numbers for Q1",
		AssignedToID: assignee.ID,
		AssignedByID: creator.ID,
		Status:       status,
		Priority:     types.PriorityMedium,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	return task
}

func do(t *testing.T, r *gin.Engine, method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)

		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}

	return body
}

// dataField digs data.<key> out of the response envelope.
func dataField(t *testing.T, body map[string]interface{}, key string) interface{} {
	t.Helper()

	data, ok := body["data"].(map[string]interface{})

	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}

	return data[key]
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func reloadTask(t *testing.T, id uint) models.Task {
	t.Helper()

	var task models.Task

	if err := db.DB.First(&task, id).Error; err != nil {
		t.Fatalf("failed to reload task %d: %v", id, err)
	}

	return task
}

// expiredBearer signs a token whose expiry is already in the past.
func expiredBearer(t *testing.T, user models.User) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte("test-secret"))

	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	return "Bearer " + signed
}
