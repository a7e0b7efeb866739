package handlers_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/router"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// setupServer boots the full engine against a fresh in-memory database
// and returns a running test server.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.DB = gdb
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// Cold cache per test, the home feed cache is process-wide
	utils.GetCache().Purge()

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("inkwell_session", store))
	r.HTMLRender = router.LoadTemplates("../../web/templates")
	r.Use(middleware.LoadUser())
	router.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func createUser(t *testing.T, username, fullName string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		FullName: fullName,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func createGroup(t *testing.T, title, slug string) *models.Group {
	t.Helper()
	group := models.Group{Title: title, Slug: slug}
	if err := db.DB.Create(&group).Error; err != nil {
		t.Fatalf("failed to create group %s: %v", slug, err)
	}
	return &group
}

func createPost(t *testing.T, author *models.User, text string, groupID *uint) *models.Post {
	t.Helper()
	post := models.Post{UserID: author.ID, GroupID: groupID, Text: text}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return &post
}

// newClient returns a cookie-carrying client, so a login sticks.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// noRedirectClient stops at the first response so redirects can be asserted.
func noRedirectClient(t *testing.T) *http.Client {
	t.Helper()
	client := newClient(t)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func login(t *testing.T, srv *httptest.Server, user *models.User) *http.Client {
	t.Helper()
	client := newClient(t)
	resp, err := client.PostForm(srv.URL+"/auth/login", url.Values{
		"email":    {user.Email},
		"password": {testPassword},
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed with status %d", user.Username, resp.StatusCode)
	}
	return client
}

func getBody(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, client *http.Client, url string, data url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(url, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
