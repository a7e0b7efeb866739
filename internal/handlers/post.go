package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/forms"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Home feed renders are cached for a fixed window, keyed by route and
// page. Writers do not invalidate the cache; a just-deleted post may
// stay visible until the entry expires. That staleness is intentional.
const homeFeedTTL = 20 * time.Second

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

// Index - home feed, all posts newest first. GET /
func (h *PostHandler) Index(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("feed:home:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			// Copy so per-request injections don't leak into the cache
			data := gin.H{}
			for k, v := range hData {
				data[k] = v
			}
			Render(c, http.StatusOK, "feed/home.html", data)
			return
		}
	}

	posts, pageInfo := paginatePosts(func() *gorm.DB {
		return db.DB
	}, page)

	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	renderData := gin.H{
		"Title":  "Latest posts",
		"Posts":  posts,
		"Groups": groups,
		"Page":   pageInfo,
	}

	// Cache a copy: Render mutates its map with per-request state
	cached := gin.H{}
	for k, v := range renderData {
		cached[k] = v
	}
	utils.GetCache().Set(cacheKey, cached, homeFeedTTL)

	Render(c, http.StatusOK, "feed/home.html", renderData)
}

// ListByGroup - posts filed under one group. GET /group/:slug
func (h *PostHandler) ListByGroup(c *gin.Context) {
	slug := c.Param("slug")

	var group models.Group
	if err := db.DB.Where("slug = ?", slug).First(&group).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Group not found")
		return
	}

	page := pageParam(c)
	posts, pageInfo := paginatePosts(func() *gorm.DB {
		return db.DB.Where("group_id = ?", group.ID)
	}, page)

	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "group/list.html", gin.H{
		"Title":  group.Title,
		"Group":  group,
		"Posts":  posts,
		"Groups": groups,
		"Page":   pageInfo,
	})
}

// renderedComment pairs a comment with its rendered body for templates.
type renderedComment struct {
	models.Comment
	TextHTML template.HTML
}

// Detail - post page with comments and the comment form. GET /posts/:id
func (h *PostHandler) Detail(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}
	h.renderDetail(c, post, http.StatusOK, "", nil)
}

func (h *PostHandler) findPost(c *gin.Context) (models.Post, bool) {
	id := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.Preload("User").Preload("Group").First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return post, false
	}
	return post, true
}

func (h *PostHandler) renderDetail(c *gin.Context, post models.Post, code int, formText string, formErrors map[string]string) {
	// Comments display in creation order
	var comments []models.Comment
	db.DB.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC, id ASC").Find(&comments)

	rendered := make([]renderedComment, len(comments))
	for i, com := range comments {
		rendered[i] = renderedComment{
			Comment:  com,
			TextHTML: utils.RenderMarkdown(com.Text),
		}
	}

	var authorPostCount int64
	db.DB.Model(&models.Post{}).Where("user_id = ?", post.UserID).Count(&authorPostCount)

	Render(c, code, "post/detail.html", gin.H{
		"Title":           "Post by " + post.User.DisplayName(),
		"Post":            post,
		"PostContent":     utils.RenderMarkdown(post.Text),
		"Comments":        rendered,
		"CommentCount":    len(comments),
		"AuthorPostCount": authorPostCount,
		"FormText":        formText,
		"FormErrors":      formErrors,
	})
}

// AddComment persists a new comment on a post. POST /posts/:id/comment
// (also bound to POST /posts/:id). Comments are write-once.
func (h *PostHandler) AddComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	post, ok := h.findPost(c)
	if !ok {
		return
	}

	var form forms.CommentForm
	if fieldErrors := forms.Bind(c, &form); fieldErrors != nil {
		h.renderDetail(c, post, http.StatusBadRequest, form.Text, fieldErrors)
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Text:   form.Text,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		h.renderDetail(c, post, http.StatusInternalServerError, form.Text,
			map[string]string{"Form": "Could not save comment"})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}

// ShowCreate - post form. GET /create
func (h *PostHandler) ShowCreate(c *gin.Context) {
	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "post/create.html", gin.H{
		"Title":     "New post",
		"Groups":    groups,
		"FormText":  "",
		"FormGroup": uint(0),
	})
}

// Create - persist a new post for the caller. POST /create
func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form forms.PostForm
	fieldErrors := forms.Bind(c, &form)
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}

	groupID := h.resolveGroup(form.GroupID, fieldErrors)

	imagePath := h.saveUploadedImage(c, fieldErrors)

	if len(fieldErrors) > 0 {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/create.html", gin.H{
			"Title":      "New post",
			"Groups":     groups,
			"FormErrors": fieldErrors,
			"FormText":   form.Text,
			"FormGroup":  groupValue(form.GroupID),
		})
		return
	}

	post := models.Post{
		UserID:  user.ID,
		GroupID: groupID,
		Text:    form.Text,
		Image:   imagePath,
	}

	if err := db.DB.Create(&post).Error; err != nil {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusInternalServerError, "post/create.html", gin.H{
			"Title":      "New post",
			"Groups":     groups,
			"FormErrors": map[string]string{"Form": "Could not save post"},
			"FormText":   form.Text,
			"FormGroup":  groupValue(form.GroupID),
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

// ShowEdit - edit form, author only. GET /posts/:id/edit
func (h *PostHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	post, ok := h.findPost(c)
	if !ok {
		return
	}

	// Non-authors bounce to the detail page, no error surfaced
	if post.UserID != user.ID {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
		return
	}

	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "post/edit.html", gin.H{
		"Title":     "Edit post",
		"Post":      post,
		"Groups":    groups,
		"FormText":  post.Text,
		"FormGroup": groupValue(post.GroupID),
	})
}

// Update - persist edits in place, author only. POST /posts/:id/edit
func (h *PostHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	post, ok := h.findPost(c)
	if !ok {
		return
	}

	if post.UserID != user.ID {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
		return
	}

	var form forms.PostForm
	fieldErrors := forms.Bind(c, &form)
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}

	groupID := h.resolveGroup(form.GroupID, fieldErrors)

	imagePath := h.saveUploadedImage(c, fieldErrors)

	if len(fieldErrors) > 0 {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/edit.html", gin.H{
			"Title":      "Edit post",
			"Post":       post,
			"Groups":     groups,
			"FormErrors": fieldErrors,
			"FormText":   form.Text,
			"FormGroup":  groupValue(form.GroupID),
		})
		return
	}

	post.Text = form.Text
	post.GroupID = groupID
	if imagePath != "" {
		post.Image = imagePath
	}

	if err := db.DB.Save(&post).Error; err != nil {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusInternalServerError, "post/edit.html", gin.H{
			"Title":      "Edit post",
			"Post":       post,
			"Groups":     groups,
			"FormErrors": map[string]string{"Form": "Could not save post"},
			"FormText":   form.Text,
			"FormGroup":  groupValue(form.GroupID),
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}

// groupValue flattens an optional group id for template selects.
func groupValue(groupID *uint) uint {
	if groupID == nil {
		return 0
	}
	return *groupID
}

// resolveGroup validates an optional group reference.
func (h *PostHandler) resolveGroup(groupID *uint, fieldErrors map[string]string) *uint {
	if groupID == nil || *groupID == 0 {
		return nil
	}
	var group models.Group
	if err := db.DB.First(&group, *groupID).Error; err != nil {
		fieldErrors["GroupID"] = "Unknown group"
		return nil
	}
	return groupID
}

// saveUploadedImage stores the optional image field, if present.
func (h *PostHandler) saveUploadedImage(c *gin.Context, fieldErrors map[string]string) string {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		// No image submitted
		return ""
	}
	defer file.Close()

	path, err := services.SaveImage(file, header)
	if err != nil {
		fieldErrors["Image"] = err.Error()
		return ""
	}
	return path
}
