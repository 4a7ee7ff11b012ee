package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/readwith/readwith/config"
	"github.com/readwith/readwith/controllers"
	"github.com/readwith/readwith/middleware"
	"github.com/readwith/readwith/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(utils.Logger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authCtrl := controllers.NewAuthController(db)
	userCtrl := controllers.NewUserController(db)
	supportCtrl := controllers.NewSupportController(db)
	parentCtrl := controllers.NewParentForumController(db)
	readingCtrl := controllers.NewReadingForumController(db)

	register := r.Group("/register", middleware.RateLimit())
	{
		register.POST("/new", authCtrl.Register)
		register.GET("/check-email", authCtrl.CheckEmail)
		register.GET("/check-nickname", authCtrl.CheckNickname)
	}

	login := r.Group("/login_user", middleware.RateLimit())
	{
		login.POST("/login", authCtrl.Login)
		login.POST("/refresh", authCtrl.Refresh)
		login.GET("/logout", middleware.AuthRequired(), authCtrl.Logout)
		login.GET("/profile-data", middleware.AuthRequired(), authCtrl.ProfileData)
	}

	oauth := r.Group("/auth")
	{
		oauth.GET("/:provider/login", middleware.RateLimit(), authCtrl.OAuthRedirect)
		oauth.GET("/:provider/callback", authCtrl.OAuthCallback)
		oauth.PATCH("/additional-info/:id", middleware.AuthRequired(), authCtrl.AdditionalInfo)
	}

	user := r.Group("/user")
	{
		user.GET("/info/:email", middleware.AuthRequired(), userCtrl.GetInfo)
		user.PATCH("/info/:email", middleware.AuthRequired(), userCtrl.UpdateInfo)
		user.DELETE("/info/:email", middleware.AuthRequired(), userCtrl.DeleteAccount)
		user.POST("/pw_reset/request", middleware.RateLimit(), userCtrl.RequestPasswordReset)
		user.POST("/pw_reset/confirm", middleware.RateLimit(), userCtrl.ConfirmPasswordReset)
	}

	support := r.Group("/customer-support")
	{
		support.GET("", func(ctx *gin.Context) {
			ctx.Redirect(http.StatusMovedPermanently, "/customer-support/list")
		})
		support.GET("/list", supportCtrl.ListPosts)
		support.GET("/list/:id", supportCtrl.GetPost)
		support.POST("/list", middleware.AuthRequired(), supportCtrl.CreatePost)
		support.PATCH("/list/:id", middleware.AuthRequired(), supportCtrl.UpdatePost)
		support.DELETE("/list/:id", middleware.AuthRequired(), supportCtrl.DeletePost)
	}

	mountForum(r.Group("/community/parent"), parentCtrl)
	mountForum(r.Group("/community/reading"), readingCtrl)

	return r
}

// forumHandlers is the route surface both community forums share.
type forumHandlers interface {
	ListPosts(*gin.Context)
	GetPost(*gin.Context)
	CreatePost(*gin.Context)
	UpdatePost(*gin.Context)
	DeletePost(*gin.Context)
}

func mountForum(g *gin.RouterGroup, c forumHandlers) {
	g.GET("/posts", c.ListPosts)
	g.GET("/post/:id", c.GetPost)
	g.POST("/post/create", middleware.AuthRequired(), c.CreatePost)
	g.PATCH("/post/:id/update", middleware.AuthRequired(), c.UpdatePost)
	g.DELETE("/post/:id/delete", middleware.AuthRequired(), c.DeletePost)
}
