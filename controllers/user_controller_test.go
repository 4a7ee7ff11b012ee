package controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/utils"
)

func TestUserInfoAccess(t *testing.T) {
	r, db := newTestServer(t)
	user, token := newUser(t, db, "holder", "customer")
	_, strangerToken := newUser(t, db, "stranger2", "customer")
	_, adminToken := newUser(t, db, "operator", "admin")

	path := "/user/info/" + user.Email

	// owner reads their own profile; the hash never leaves the server
	w := do(t, r, http.MethodGet, path, token, nil)
	var got models.User
	okData(t, w, &got)
	assert.Equal(t, user.Email, got.Email)
	assert.NotContains(t, w.Body.String(), "password_hash")

	// strangers are rejected, admins are not
	failKind(t, do(t, r, http.MethodGet, path, strangerToken, nil), http.StatusForbidden, "forbidden")
	okData(t, do(t, r, http.MethodGet, path, adminToken, nil), nil)

	// unauthenticated access never reaches the handler
	failKind(t, do(t, r, http.MethodGet, path, "", nil), http.StatusUnauthorized, "unauthorized")

	// unknown address
	failKind(t, do(t, r, http.MethodGet, "/user/info/ghost@example.com", adminToken, nil),
		http.StatusNotFound, "not_found")
}

func TestUserInfoPatch(t *testing.T) {
	r, db := newTestServer(t)
	user, token := newUser(t, db, "editable", "customer")
	path := "/user/info/" + user.Email

	okData(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{
		"nickname": "renamed",
		"phone":    "010-1234-5678",
	}), nil)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, "renamed", fresh.Nickname)
	assert.Equal(t, "010-1234-5678", fresh.Phone)

	// an empty patch is an error
	failKind(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{}),
		http.StatusUnprocessableEntity, "validation_error")

	// short replacement passwords are rejected
	failKind(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{"password": "tiny"}),
		http.StatusUnprocessableEntity, "validation_error")

	// a valid password change takes effect at login
	okData(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{"password": "brand-new-secret"}), nil)
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.True(t, utils.CheckPassword(fresh.PasswordHash, "brand-new-secret"))
}

func TestUserDelete(t *testing.T) {
	r, db := newTestServer(t)
	user, token := newUser(t, db, "quitter", "customer")

	okData(t, do(t, r, http.MethodDelete, "/user/info/"+user.Email, token, nil), nil)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPasswordResetRequestUnknownEmail(t *testing.T) {
	r, _ := newTestServer(t)

	// the endpoint does not reveal whether an address exists
	var out struct {
		Sent bool `json:"sent"`
	}
	okData(t, do(t, r, http.MethodPost, "/user/pw_reset/request", "", map[string]interface{}{
		"email": "nobody@example.com",
	}), &out)
	assert.True(t, out.Sent)
}

func TestPasswordResetRequestOAuthAccount(t *testing.T) {
	r, db := newTestServer(t)
	require.NoError(t, db.Create(&models.User{
		Email:      "naverite@example.com",
		Nickname:   "naverite",
		Provider:   "naver",
		ProviderID: "n-1",
	}).Error)

	failKind(t, do(t, r, http.MethodPost, "/user/pw_reset/request", "", map[string]interface{}{
		"email": "naverite@example.com",
	}), http.StatusConflict, "conflict")
}

func TestPasswordResetConfirm(t *testing.T) {
	r, db := newTestServer(t)
	user, _ := newUser(t, db, "forgetful", "customer")

	reset, err := utils.GenerateToken(user.ID, user.Nickname, user.Role, utils.TokenReset, utils.ResetTokenTTL)
	require.NoError(t, err)

	okData(t, do(t, r, http.MethodPost, "/user/pw_reset/confirm", "", map[string]interface{}{
		"token": reset, "password": "my-new-password",
	}), nil)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.True(t, utils.CheckPassword(fresh.PasswordHash, "my-new-password"))

	// the link is single use
	failKind(t, do(t, r, http.MethodPost, "/user/pw_reset/confirm", "", map[string]interface{}{
		"token": reset, "password": "another-password",
	}), http.StatusUnauthorized, "unauthorized")

	// an access token is not a reset token
	access, err := utils.GenerateToken(user.ID, user.Nickname, user.Role, utils.TokenAccess, time.Minute)
	require.NoError(t, err)
	failKind(t, do(t, r, http.MethodPost, "/user/pw_reset/confirm", "", map[string]interface{}{
		"token": access, "password": "sneaky-password",
	}), http.StatusUnauthorized, "unauthorized")
}
