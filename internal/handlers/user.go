package handlers

import (
	"net/http"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile - an author's page with their posts. GET /profile/:username
func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	var author models.User
	if err := db.DB.Where("username = ?", username).First(&author).Error; err != nil {
		RenderError(c, http.StatusNotFound, "User not found")
		return
	}

	page := pageParam(c)
	posts, pageInfo := paginatePosts(func() *gorm.DB {
		return db.DB.Where("user_id = ?", author.ID)
	}, page)

	var postCount int64
	db.DB.Model(&models.Post{}).Where("user_id = ?", author.ID).Count(&postCount)

	// Whether the viewer already follows this author
	following := false
	if viewer := currentUser(c); viewer != nil {
		var count int64
		db.DB.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", viewer.ID, author.ID).
			Count(&count)
		following = count > 0
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":      author.DisplayName(),
		"Author":     author,
		"AuthorName": author.DisplayName(),
		"Posts":      posts,
		"PostCount":  postCount,
		"Following":  following,
		"Page":       pageInfo,
	})
}

// Follow creates the follow edge towards :username. Repeats are no-ops,
// and following yourself silently bounces back to the profile.
func (h *UserHandler) Follow(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	username := c.Param("username")

	var author models.User
	if err := db.DB.Where("username = ?", username).First(&author).Error; err != nil {
		RenderError(c, http.StatusNotFound, "User not found")
		return
	}

	if author.ID == user.ID {
		c.Redirect(http.StatusFound, "/profile/"+author.Username)
		return
	}

	follow := models.Follow{UserID: user.ID, AuthorID: author.ID}
	db.DB.Where("user_id = ? AND author_id = ?", user.ID, author.ID).FirstOrCreate(&follow)

	c.Redirect(http.StatusFound, "/follow")
}

// Unfollow removes the follow edge towards :username, if present.
func (h *UserHandler) Unfollow(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	username := c.Param("username")

	var author models.User
	if err := db.DB.Where("username = ?", username).First(&author).Error; err != nil {
		RenderError(c, http.StatusNotFound, "User not found")
		return
	}

	db.DB.Where("user_id = ? AND author_id = ?", user.ID, author.ID).Delete(&models.Follow{})

	c.Redirect(http.StatusFound, "/follow")
}

// FollowFeed - posts by every author the caller follows. GET /follow
// Following nobody yields an empty, valid page.
func (h *UserHandler) FollowFeed(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	page := pageParam(c)
	posts, pageInfo := paginatePosts(func() *gorm.DB {
		return db.DB.Where("user_id IN (?)",
			db.DB.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", user.ID))
	}, page)

	Render(c, http.StatusOK, "feed/follow.html", gin.H{
		"Title": "Following",
		"Posts": posts,
		"Page":  pageInfo,
	})
}
