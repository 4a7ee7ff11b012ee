package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/routes"
	"github.com/readwith/readwith/utils"
)

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SupportTicket{},
		&models.ParentPost{},
		&models.ReadingPost{},
	))
	return routes.SetupRouter(db), db
}

func newUser(t *testing.T, db *gorm.DB, nickname, role string) (*models.User, string) {
	t.Helper()
	u := &models.User{
		Email:    nickname + "@example.com",
		Nickname: nickname,
		Name:     nickname,
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	token, err := utils.GenerateToken(u.ID, u.Nickname, u.Role, utils.TokenAccess, utils.AccessTokenTTL)
	require.NoError(t, err)
	return u, token
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type failure struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func okData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, 0, env.Code)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func failKind(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	var f failure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	require.Equal(t, kind, f.ErrorKind)
}

func refreshToken(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Nickname, u.Role, utils.TokenRefresh, utils.RefreshTokenTTL)
	require.NoError(t, err)
	return token
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
