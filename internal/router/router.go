package router

import (
	"net/http"
	"time"

	"socal/internal/config"
	"socal/internal/db"
	"socal/internal/handlers"
	"socal/internal/middleware"
	"socal/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New builds the engine with the global middleware and every route.
func New(cfg config.Config, conn *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	corsCfg := cors.Config{
		AllowOrigins:  cfg.CORS.Origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Location"},
		MaxAge:        5 * time.Minute,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	tokens := services.NewTokenService(cfg.JWT)
	r.Use(middleware.LoadPrincipal(tokens))

	RegisterRoutes(r, conn, tokens)
	return r
}

func RegisterRoutes(r *gin.Engine, conn *gorm.DB, tokens *services.TokenService) {
	users := services.NewUserService(conn)
	posts := services.NewPostService(conn)
	comments := services.NewCommentService(conn)

	// Handlers
	authHandler := handlers.NewAuthHandler(users, tokens)
	userHandler := handlers.NewUserHandler(users)
	postHandler := handlers.NewPostHandler(posts)
	commentHandler := handlers.NewCommentHandler(comments)

	r.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context(), conn); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.GET("", func(c *gin.Context) { c.JSON(http.StatusOK, "Hello World") })

		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/signup", authHandler.Signup)

		// Public reads
		api.GET("/posts", postHandler.List)
		api.GET("/posts/:id/comments", commentHandler.List)
		// Anonymous callers get 401 from the handler
		api.POST("/posts/:id/comments", commentHandler.Create)
	}

	// Protected Routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/posts/:id", postHandler.Get)
		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.PATCH("/posts/:id/availability", postHandler.UpdateAvailability)
		authorized.DELETE("/posts/:id", postHandler.Delete)

		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.GET("/users/profile", userHandler.Profile)
		authorized.DELETE("/users/profile", userHandler.DeleteAccount)
	}
}
