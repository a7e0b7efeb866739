package handlers

import (
	"math"
	"net/http"
	"strconv"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Posts per listing page, everywhere
const postsPerPage = 10

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user, exists := c.Get(middleware.CheckUserKey); exists {
		obj["CurrentUser"] = user
	}

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// PageInfo carries listing pagination metadata into templates.
type PageInfo struct {
	Current    int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Prev       int
	Next       int
}

// pageParam reads ?page=, non-positive or malformed values clamp to 1.
func pageParam(c *gin.Context) int {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	return page
}

// paginatePosts returns one page of posts, newest first, for the query
// produced by scope. The scope func must build a fresh query on every
// call because gorm queries are not reusable.
func paginatePosts(scope func() *gorm.DB, page int) ([]models.Post, PageInfo) {
	var total int64
	scope().Model(&models.Post{}).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(postsPerPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	scope().Preload("User").Preload("Group").
		Order("created_at DESC, id DESC").
		Limit(postsPerPage).
		Offset((page - 1) * postsPerPage).
		Find(&posts)

	fillCommentCounts(posts)

	return posts, PageInfo{
		Current:    page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Prev:       page - 1,
		Next:       page + 1,
	}
}

// fillCommentCounts batch-fills CommentCount for a page of posts.
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

// currentUser returns the logged-in user, or nil for anonymous requests.
func currentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists && user != nil {
		return user.(*models.User)
	}
	return nil
}

// NotFound handles unknown routes.
func NotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "Page not found")
}
