package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwith/readwith/models"
)

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newTestServer(t)

	payload := map[string]interface{}{
		"email":    "newparent@example.com",
		"password": "sup3r-secret",
		"name":     "Kim Jiyoung",
		"nickname": "jiyoung",
		"age":      34,
	}
	var reg struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Nickname string `json:"nickname"`
	}
	okData(t, do(t, r, http.MethodPost, "/register/new", "", payload), &reg)
	assert.Equal(t, "newparent@example.com", reg.Email)

	// same address cannot register twice
	failKind(t, do(t, r, http.MethodPost, "/register/new", "", payload), http.StatusConflict, "conflict")

	// a short password never reaches the store
	bad := map[string]interface{}{
		"email": "x@example.com", "password": "short", "name": "X", "nickname": "x",
	}
	failKind(t, do(t, r, http.MethodPost, "/register/new", "", bad),
		http.StatusUnprocessableEntity, "validation_error")

	// availability probes
	var avail struct {
		Available bool `json:"available"`
	}
	okData(t, do(t, r, http.MethodGet, "/register/check-email?email=newparent@example.com", "", nil), &avail)
	assert.False(t, avail.Available)
	okData(t, do(t, r, http.MethodGet, "/register/check-nickname?nickname=somebody-else", "", nil), &avail)
	assert.True(t, avail.Available)

	// wrong password
	failKind(t, do(t, r, http.MethodPost, "/login_user/login", "", map[string]interface{}{
		"email": "newparent@example.com", "password": "wrong-password",
	}), http.StatusUnauthorized, "unauthorized")

	// correct login issues cookies and an access token
	w := do(t, r, http.MethodPost, "/login_user/login", "", map[string]interface{}{
		"email": "newparent@example.com", "password": "sup3r-secret",
	})
	var login struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Nickname string `json:"nickname"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	okData(t, w, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "jiyoung", login.User.Nickname)
	assert.Equal(t, "customer", login.User.Role)

	cookies := w.Result().Cookies()
	names := map[string]bool{}
	for _, c := range cookies {
		names[c.Name] = true
		assert.True(t, c.HttpOnly, c.Name)
	}
	assert.True(t, names["access_token"])
	assert.True(t, names["refresh_token"])

	// the bearer token works against an authenticated endpoint
	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	okData(t, do(t, r, http.MethodGet, "/login_user/profile-data", login.AccessToken, nil), &profile)
	assert.Equal(t, "newparent@example.com", profile.Email)
}

func TestLoginRejectsOAuthAccounts(t *testing.T) {
	r, db := newTestServer(t)
	require.NoError(t, db.Create(&models.User{
		Email:      "social@example.com",
		Nickname:   "social",
		Provider:   "kakao",
		ProviderID: "k-123",
	}).Error)

	w := do(t, r, http.MethodPost, "/login_user/login", "", map[string]interface{}{
		"email": "social@example.com", "password": "whatever123",
	})
	failKind(t, w, http.StatusConflict, "conflict")
	assert.Contains(t, w.Body.String(), "kakao")
}

func TestRefreshFromCookie(t *testing.T) {
	r, db := newTestServer(t)
	user, _ := newUser(t, db, "refresher", "customer")
	refresh := refreshToken(t, user)

	req := httptest.NewRequest(http.MethodPost, "/login_user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	okData(t, w, &out)
	assert.NotEmpty(t, out.AccessToken)

	// no cookie, no refresh
	failKind(t, do(t, r, http.MethodPost, "/login_user/refresh", "", nil),
		http.StatusUnauthorized, "unauthorized")
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	r, db := newTestServer(t)
	_, token := newUser(t, db, "leaver", "customer")

	okData(t, do(t, r, http.MethodGet, "/login_user/profile-data", token, nil), nil)
	okData(t, do(t, r, http.MethodGet, "/login_user/logout", token, nil), nil)

	failKind(t, do(t, r, http.MethodGet, "/login_user/profile-data", token, nil),
		http.StatusUnauthorized, "unauthorized")
}

func TestOAuthRedirectURL(t *testing.T) {
	r, _ := newTestServer(t)

	var out struct {
		AuthURL string `json:"auth_url"`
	}
	okData(t, do(t, r, http.MethodGet, "/auth/google/login", "", nil), &out)
	assert.True(t, strings.HasPrefix(out.AuthURL, "https://accounts.google.com/"), out.AuthURL)
	assert.Contains(t, out.AuthURL, "state=")

	okData(t, do(t, r, http.MethodGet, "/auth/naver/login", "", nil), &out)
	assert.True(t, strings.HasPrefix(out.AuthURL, "https://nid.naver.com/"), out.AuthURL)

	okData(t, do(t, r, http.MethodGet, "/auth/kakao/login", "", nil), &out)
	assert.True(t, strings.HasPrefix(out.AuthURL, "https://kauth.kakao.com/"), out.AuthURL)

	failKind(t, do(t, r, http.MethodGet, "/auth/github/login", "", nil),
		http.StatusNotFound, "not_found")
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	r, _ := newTestServer(t)
	failKind(t, do(t, r, http.MethodGet, "/auth/google/callback?state=forged&code=abc", "", nil),
		http.StatusUnauthorized, "unauthorized")
}

func TestAdditionalInfo(t *testing.T) {
	r, db := newTestServer(t)
	user, token := newUser(t, db, "incomplete", "customer")
	_, otherToken := newUser(t, db, "nosy", "customer")

	path := "/auth/additional-info/" + itoa(user.ID)
	okData(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{
		"nickname": "completed", "age": 29, "gender": "f",
	}), nil)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, "completed", fresh.Nickname)
	require.NotNil(t, fresh.Age)
	assert.Equal(t, 29, *fresh.Age)

	// someone else's profile is off limits
	failKind(t, do(t, r, http.MethodPatch, path, otherToken, map[string]interface{}{"nickname": "stolen"}),
		http.StatusForbidden, "forbidden")

	// the role field is not part of the payload shape and is never applied
	okData(t, do(t, r, http.MethodPatch, path, token, map[string]interface{}{
		"nickname": "still-customer", "role": "admin",
	}), nil)
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, "customer", fresh.Role)
}

func TestSupportRootRedirects(t *testing.T) {
	r, _ := newTestServer(t)
	w := do(t, r, http.MethodGet, "/customer-support", "", nil)
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/customer-support/list", w.Header().Get("Location"))
}
