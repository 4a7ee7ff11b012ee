package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readwith/readwith/config"
	"github.com/readwith/readwith/middleware"
	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/utils"
)

// UserController serves profile reads/edits and the password reset flow.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController backed by the given database.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// loadByEmail fetches the addressed account and checks that the caller may
// act on it. Writes the error response itself on failure.
func (u *UserController) loadByEmail(ctx *gin.Context) (*models.User, bool) {
	email := strings.ToLower(strings.TrimSpace(ctx.Param("email")))
	if email == "" {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "email required")
		return nil, false
	}

	var user models.User
	err := u.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "user not found")
		return nil, false
	}
	if err != nil {
		utils.Logger.Error("user lookup failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load user")
		return nil, false
	}

	if user.ID != middleware.CurrentUserID(ctx) && !middleware.IsAdmin(ctx) {
		utils.Fail(ctx, http.StatusForbidden, utils.KindForbidden, "cannot access another user's account")
		return nil, false
	}
	return &user, true
}

// GetInfo returns the full profile of the addressed account.
func (u *UserController) GetInfo(ctx *gin.Context) {
	user, ok := u.loadByEmail(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, user)
}

// UpdateInfo applies a field-level patch to the addressed account.
func (u *UserController) UpdateInfo(ctx *gin.Context) {
	user, ok := u.loadByEmail(ctx)
	if !ok {
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Nickname *string `json:"nickname"`
		Age      *int    `json:"age"`
		Gender   *string `json:"gender"`
		Phone    *string `json:"phone"`
		Password *string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "invalid payload")
		return
	}

	patch := map[string]interface{}{}
	if req.Name != nil {
		patch["name"] = utils.Sanitize(strings.TrimSpace(*req.Name))
	}
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
	if req.Password != nil {
		if user.IsOAuth() {
			utils.Fail(ctx, http.StatusConflict, utils.KindConflict, "social accounts have no local password")
			return
		}
		if len(*req.Password) < 8 {
			utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "password must be at least 8 characters")
			return
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to update password")
			return
		}
		patch["password_hash"] = hash
	}
	if len(patch) == 0 {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "no fields to update")
		return
	}

	if err := u.db.Model(user).Updates(patch).Error; err != nil {
		utils.Logger.Error("user update failed", zap.Uint("id", user.ID), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to update user")
		return
	}
	utils.Success(ctx, user)
}

// DeleteAccount removes the addressed account.
func (u *UserController) DeleteAccount(ctx *gin.Context) {
	user, ok := u.loadByEmail(ctx)
	if !ok {
		return
	}
	if err := u.db.Delete(user).Error; err != nil {
		utils.Logger.Error("user delete failed", zap.Uint("id", user.ID), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to delete account")
		return
	}
	clearAuthCookies(ctx)
	utils.Success(ctx, gin.H{"deleted": user.Email})
}

// RequestPasswordReset emails a short-lived reset link. The response does
// not reveal whether the address exists.
func (u *UserController) RequestPasswordReset(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "valid email required")
		return
	}

	var user models.User
	err := u.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(ctx, gin.H{"sent": true})
		return
	}
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to process request")
		return
	}
	if user.IsOAuth() {
		utils.Fail(ctx, http.StatusConflict, utils.KindConflict,
			fmt.Sprintf("this account uses %s login", user.Provider))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Nickname, user.Role, utils.TokenReset, utils.ResetTokenTTL)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to process request")
		return
	}

	link := fmt.Sprintf("%s/pw-reset?token=%s", strings.TrimRight(config.Get().FrontendBaseURL, "/"), token)
	body := fmt.Sprintf("A password reset was requested for your account.\n\n"+
		"Open the link below within 15 minutes to choose a new password:\n\n%s\n\n"+
		"If you did not request this, ignore this mail.", link)
	if err := utils.SendMail(user.Email, "Password reset", body); err != nil {
		utils.Logger.Error("reset mail failed", zap.String("email", user.Email), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to send reset mail")
		return
	}
	utils.Success(ctx, gin.H{"sent": true})
}

// ConfirmPasswordReset verifies a single-use reset token and stores the new
// password hash.
func (u *UserController) ConfirmPasswordReset(ctx *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "token and new password required")
		return
	}

	if utils.IsTokenBlacklisted(req.Token) {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "reset link already used")
		return
	}
	claims, err := utils.ParseToken(req.Token, utils.TokenReset)
	if err != nil {
		utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid or expired reset link")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to reset password")
		return
	}
	res := u.db.Model(&models.User{}).Where("id = ?", claims.UserID).Update("password_hash", hash)
	if res.Error != nil {
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to reset password")
		return
	}
	if res.RowsAffected == 0 {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "account no longer exists")
		return
	}

	// single use
	utils.BlacklistToken(req.Token, claims.ExpiresAt.Time)
	utils.Success(ctx, gin.H{"reset": true})
}
