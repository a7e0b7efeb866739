package router

import (
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	postHandler := handlers.NewPostHandler()
	userHandler := handlers.NewUserHandler()
	pageHandler := handlers.NewPageHandler()

	// Public routes
	r.GET("/", postHandler.Index)                      // home feed
	r.GET("/group/:slug", postHandler.ListByGroup)     // group feed
	r.GET("/profile/:username", userHandler.Profile)   // author profile feed
	r.GET("/posts/:id", postHandler.Detail)            // post detail + comments
	r.GET("/about/author", pageHandler.AboutAuthor)    // static pages
	r.GET("/about/tech", pageHandler.AboutTech)

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.GET("/signup", authHandler.ShowSignup)
		auth.POST("/signup", authHandler.Signup)
		auth.GET("/login", authHandler.ShowLogin)
		auth.POST("/login", authHandler.Login)
		auth.GET("/logout", authHandler.Logout)
		auth.GET("/forgot", authHandler.ShowForgotPassword)
		auth.POST("/forgot", authHandler.ForgotPassword)
		auth.GET("/reset", authHandler.ShowResetPassword)
		auth.POST("/reset", authHandler.ResetPassword)

		auth.GET("/password", middleware.AuthRequired(), authHandler.ShowChangePassword)
		auth.POST("/password", middleware.AuthRequired(), authHandler.ChangePassword)
	}

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/create", postHandler.ShowCreate)   // new post form
		authorized.POST("/create", postHandler.Create)      // submit new post
		authorized.GET("/posts/:id/edit", postHandler.ShowEdit) // edit form, author only
		authorized.POST("/posts/:id/edit", postHandler.Update)  // submit edit
		authorized.POST("/posts/:id", postHandler.AddComment)   // comment via detail page
		authorized.POST("/posts/:id/comment", postHandler.AddComment)

		authorized.GET("/profile/:username/follow", userHandler.Follow)
		authorized.POST("/profile/:username/follow", userHandler.Follow)
		authorized.GET("/profile/:username/unfollow", userHandler.Unfollow)
		authorized.POST("/profile/:username/unfollow", userHandler.Unfollow)

		authorized.GET("/follow", userHandler.FollowFeed) // following feed
	}

	// Unknown routes render the not-found page
	r.NoRoute(handlers.NotFound)
}
