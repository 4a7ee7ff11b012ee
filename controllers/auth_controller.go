package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/readwith/readwith/config"
	"github.com/readwith/readwith/middleware"
	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/utils"
)

// AuthController handles local accounts, sessions and social login.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController backed by the given database.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

const refreshTokenCookie = "refresh_token"

func setAuthCookies(ctx *gin.Context, access, refresh string) {
	ctx.SetCookie(middleware.AccessTokenCookie, access, int(utils.AccessTokenTTL.Seconds()), "/", "", false, true)
	ctx.SetCookie(refreshTokenCookie, refresh, int(utils.RefreshTokenTTL.Seconds()), "/", "", false, true)
}

func clearAuthCookies(ctx *gin.Context) {
	ctx.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	ctx.SetCookie(refreshTokenCookie, "", -1, "/", "", false, true)
}

func issueSession(ctx *gin.Context, user *models.User) (string, error) {
	access, err := utils.GenerateToken(user.ID, user.Nickname, user.Role, utils.TokenAccess, utils.AccessTokenTTL)
	if err != nil {
		return "", err
	}
	refresh, err := utils.GenerateToken(user.ID, user.Nickname, user.Role, utils.TokenRefresh, utils.RefreshTokenTTL)
	if err != nil {
		return "", err
	}
	setAuthCookies(ctx, access, refresh)
	return access, nil
}

// Register creates a local account.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name" binding:"required"`
		Nickname string `json:"nickname" binding:"required"`
		Age      *int   `json:"age"`
		Gender   string `json:"gender"`
		Phone    string `json:"phone"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "invalid registration payload")
		return
	}

	ip := ctx.ClientIP()
	if !utils.RegistrationCooldownTry(ip) {
		utils.Fail(ctx, http.StatusTooManyRequests, utils.KindValidation, "too many registration attempts, slow down")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Fail(ctx, http.StatusTooManyRequests, utils.KindValidation, "daily registration limit reached")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var count int64
	if err := a.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Logger.Error("register lookup failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to create account")
		return
	}
	if count > 0 {
		utils.Fail(ctx, http.StatusConflict, utils.KindConflict, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Logger.Error("password hash failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to create account")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         utils.Sanitize(strings.TrimSpace(req.Name)),
		Nickname:     utils.Sanitize(strings.TrimSpace(req.Nickname)),
		Age:          req.Age,
		Gender:       req.Gender,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         models.RoleCustomer,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Logger.Error("register create failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to create account")
		return
	}
	utils.RegistrationDailyIncrement(ip)

	utils.Success(ctx, gin.H{"id": user.ID, "email": user.Email, "nickname": user.Nickname})
}

// CheckEmail reports whether an email address is still available.
func (a *AuthController) CheckEmail(ctx *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(ctx.Query("email")))
	if email == "" {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "email query parameter required")
		return
	}
	var count int64
	if err := a.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "lookup failed")
		return
	}
	utils.Success(ctx, gin.H{"available": count == 0})
}

// CheckNickname reports whether a nickname is still available.
func (a *AuthController) CheckNickname(ctx *gin.Context) {
	nickname := strings.TrimSpace(ctx.Query("nickname"))
	if nickname == "" {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "nickname query parameter required")
		return
	}
	var count int64
	if err := a.db.Model(&models.User{}).Where("nickname = ?", nickname).Count(&count).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "lookup failed")
		return
	}
	utils.Success(ctx, gin.H{"available": count == 0})
}

// Login authenticates a local account and starts a cookie session.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "email and password required")
		return
	}

	var user models.User
	err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		utils.Logger.Error("login lookup failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "login failed")
		return
	}

	if user.IsOAuth() {
		utils.Fail(ctx, http.StatusConflict, utils.KindConflict,
			fmt.Sprintf("this account uses %s login", user.Provider))
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid email or password")
		return
	}

	access, err := issueSession(ctx, &user)
	if err != nil {
		utils.Logger.Error("token generation failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "login failed")
		return
	}
	utils.Success(ctx, gin.H{
		"access_token": access,
		"user":         gin.H{"id": user.ID, "email": user.Email, "nickname": user.Nickname, "role": user.Role},
	})
}

// Refresh mints a new access token from the refresh cookie.
func (a *AuthController) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshTokenCookie)
	if err != nil || raw == "" {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "refresh token missing")
		return
	}
	if utils.IsTokenBlacklisted(raw) {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "refresh token revoked")
		return
	}
	claims, err := utils.ParseToken(raw, utils.TokenRefresh)
	if err != nil {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid refresh token")
		return
	}

	access, err := utils.GenerateToken(claims.UserID, claims.Nickname, claims.Role, utils.TokenAccess, utils.AccessTokenTTL)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to refresh session")
		return
	}
	ctx.SetCookie(middleware.AccessTokenCookie, access, int(utils.AccessTokenTTL.Seconds()), "/", "", false, true)
	utils.Success(ctx, gin.H{"access_token": access})
}

// Logout revokes the current tokens and clears session cookies.
func (a *AuthController) Logout(ctx *gin.Context) {
	if raw := currentAccessToken(ctx); raw != "" {
		if claims, err := utils.ParseToken(raw, utils.TokenAccess); err == nil {
			utils.BlacklistToken(raw, claims.ExpiresAt.Time)
		}
	}
	if raw, err := ctx.Cookie(refreshTokenCookie); err == nil && raw != "" {
		if claims, err := utils.ParseToken(raw, utils.TokenRefresh); err == nil {
			utils.BlacklistToken(raw, claims.ExpiresAt.Time)
		}
	}
	clearAuthCookies(ctx)
	utils.Success(ctx, gin.H{"logged_out": true})
}

// ProfileData returns the signed-in user's profile summary.
func (a *AuthController) ProfileData(ctx *gin.Context) {
	var user models.User
	err := a.db.First(&user, middleware.CurrentUserID(ctx)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "account no longer exists")
		return
	}
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load profile")
		return
	}
	utils.Success(ctx, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"nickname": user.Nickname,
		"role":     user.Role,
	})
}

func currentAccessToken(ctx *gin.Context) string {
	if h := ctx.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := ctx.Cookie(middleware.AccessTokenCookie); err == nil {
		return v
	}
	return ""
}

// --- social login ---

type providerProfile struct {
	ID       string
	Email    string
	Name     string
	Nickname string
}

func oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	redirect := strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/auth/" + provider + "/callback"
	switch provider {
	case "google":
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}, nil
	case "naver":
		return &oauth2.Config{
			ClientID:     cfg.NaverClientID,
			ClientSecret: cfg.NaverClientSecret,
			RedirectURL:  redirect,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
				TokenURL: "https://nid.naver.com/oauth2.0/token",
			},
		}, nil
	case "kakao":
		return &oauth2.Config{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{"account_email", "profile_nickname"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://kauth.kakao.com/oauth/authorize",
				TokenURL: "https://kauth.kakao.com/oauth/token",
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown oauth provider %q", provider)
}

// OAuthRedirect returns the provider authorization URL with a single-use
// state token.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf, err := oauthConfig(ctx.Param("provider"))
	if err != nil {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, err.Error())
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	utils.Success(ctx, gin.H{"auth_url": conf.AuthCodeURL(state)})
}

// OAuthCallback exchanges the provider code, signs the user in and redirects
// back to the frontend. New accounts land on the additional-info page.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	conf, err := oauthConfig(provider)
	if err != nil {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, err.Error())
		return
	}

	if !utils.ConsumeState(ctx.Query("state")) {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid or expired oauth state")
		return
	}
	code := ctx.Query("code")
	if code == "" {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "authorization code missing")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()
	token, err := conf.Exchange(reqCtx, code)
	if err != nil {
		utils.Logger.Warn("oauth exchange failed", zap.String("provider", provider), zap.Error(err))
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "oauth code exchange failed")
		return
	}

	profile, err := fetchProviderProfile(reqCtx, provider, conf, token)
	if err != nil {
		utils.Logger.Warn("oauth profile fetch failed", zap.String("provider", provider), zap.Error(err))
		utils.Fail(ctx, http.StatusBadGateway, utils.KindStore, "failed to fetch provider profile")
		return
	}

	user, created, err := a.findOrCreateOAuthUser(provider, profile)
	if err != nil {
		utils.Logger.Error("oauth account lookup failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to sign in")
		return
	}

	if _, err := issueSession(ctx, user); err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to sign in")
		return
	}

	base := strings.TrimRight(config.Get().FrontendBaseURL, "/")
	if created {
		ctx.Redirect(http.StatusFound, fmt.Sprintf("%s/additional-info?user_id=%d", base, user.ID))
		return
	}
	ctx.Redirect(http.StatusFound, base+"/")
}

func fetchProviderProfile(ctx context.Context, provider string, conf *oauth2.Config, token *oauth2.Token) (*providerProfile, error) {
	client := conf.Client(ctx, token)

	var url string
	switch provider {
	case "google":
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	case "naver":
		url = "https://openapi.naver.com/v1/nid/me"
	case "kakao":
		url = "https://kapi.kakao.com/v2/user/me"
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch provider {
	case "google":
		var v struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &providerProfile{ID: v.ID, Email: v.Email, Name: v.Name, Nickname: v.Name}, nil
	case "naver":
		var v struct {
			Response struct {
				ID       string `json:"id"`
				Email    string `json:"email"`
				Name     string `json:"name"`
				Nickname string `json:"nickname"`
			} `json:"response"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &providerProfile{ID: v.Response.ID, Email: v.Response.Email, Name: v.Response.Name, Nickname: v.Response.Nickname}, nil
	case "kakao":
		var v struct {
			ID      int64 `json:"id"`
			Account struct {
				Email   string `json:"email"`
				Profile struct {
					Nickname string `json:"nickname"`
				} `json:"profile"`
			} `json:"kakao_account"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &providerProfile{
			ID:       strconv.FormatInt(v.ID, 10),
			Email:    v.Account.Email,
			Nickname: v.Account.Profile.Nickname,
			Name:     v.Account.Profile.Nickname,
		}, nil
	}
	return nil, fmt.Errorf("unknown oauth provider %q", provider)
}

// findOrCreateOAuthUser resolves a provider profile to a local account. An
// existing account with the same email is linked rather than duplicated.
func (a *AuthController) findOrCreateOAuthUser(provider string, p *providerProfile) (*models.User, bool, error) {
	var user models.User
	err := a.db.Where("oauth = ? AND provider_id = ?", provider, p.ID).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if p.Email != "" {
		err = a.db.Where("email = ?", strings.ToLower(p.Email)).First(&user).Error
		if err == nil {
			user.Provider = provider
			user.ProviderID = p.ID
			if err := a.db.Model(&user).Updates(map[string]interface{}{"oauth": provider, "provider_id": p.ID}).Error; err != nil {
				return nil, false, err
			}
			return &user, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	email := strings.ToLower(p.Email)
	if email == "" {
		email = fmt.Sprintf("%s_%s@oauth.local", provider, p.ID)
	}
	user = models.User{
		Email:      email,
		Name:       p.Name,
		Nickname:   p.Nickname,
		Provider:   provider,
		ProviderID: p.ID,
		Role:       models.RoleCustomer,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// AdditionalInfo completes a first-time OAuth profile. The role is never
// client-assignable.
func (a *AuthController) AdditionalInfo(ctx *gin.Context) {
	id, apiErr := pathID(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}
	if id != middleware.CurrentUserID(ctx) && !middleware.IsAdmin(ctx) {
		utils.Fail(ctx, http.StatusForbidden, utils.KindForbidden, "cannot edit another user's profile")
		return
	}

	var req struct {
		Nickname *string `json:"nickname"`
		Age      *int    `json:"age"`
		Gender   *string `json:"gender"`
		Phone    *string `json:"phone"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "invalid payload")
		return
	}

	patch := map[string]interface{}{}
	if req.Nickname != nil {
		patch["nickname"] = utils.Sanitize(strings.TrimSpace(*req.Nickname))
	}
	if req.Age != nil {
		patch["age"] = *req.Age
	}
	if req.Gender != nil {
		patch["gender"] = *req.Gender
	}
	if req.Phone != nil {
		patch["phone"] = strings.TrimSpace(*req.Phone)
	}
	if len(patch) == 0 {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "no fields to update")
		return
	}

	var user models.User
	if err := a.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "user not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load user")
		return
	}
	if err := a.db.Model(&user).Updates(patch).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to update profile")
		return
	}
	utils.Success(ctx, gin.H{"id": user.ID, "updated": true})
}
