package main

import (
	"log"
	"net/http"
	"os"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/router"

	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// Initialize Gin
	r := gin.Default()

	// Security headers
	r.Use(secure.New(secure.Config{
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		FrameDeny:          true,
	}))

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   os.Getenv("SESSION_SECURE") == "true",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("inkwell_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = router.LoadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")
	r.Static("/uploads", "./web/uploads")

	// Middleware
	r.Use(middleware.LoadUser())

	// Routes
	router.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Inkwell server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
