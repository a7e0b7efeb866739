// Package forms holds the submission forms and their validation rules.
// Binding runs through gin's form binder, which validates the `binding`
// tags with go-playground/validator under the hood.
package forms

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// PostForm is the create/edit submission for a post.
type PostForm struct {
	Text    string `form:"text" binding:"required"`
	GroupID *uint  `form:"group_id"`
}

// CommentForm is the add-comment submission on a post detail page.
type CommentForm struct {
	Text string `form:"text" binding:"required"`
}

// SignupForm is the registration submission.
type SignupForm struct {
	Username string `form:"username" binding:"required,min=3,max=50,alphanum"`
	Email    string `form:"email" binding:"required,email"`
	FullName string `form:"full_name" binding:"max=100"`
	Password string `form:"password" binding:"required,min=6"`
}

var fieldMessages = map[string]string{
	"required": "This field is required",
	"email":    "Enter a valid email address",
	"alphanum": "Only letters and digits are allowed",
	"min":      "Too short",
	"max":      "Too long",
}

// Bind binds the request form into dst and returns per-field error
// messages keyed by field name, or nil when the form is valid.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}

	fieldErrors := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "Invalid value"
			}
			fieldErrors[fe.Field()] = msg
		}
		return fieldErrors
	}

	// Binding failed before validation (e.g. malformed group_id)
	fieldErrors["Form"] = "Invalid form submission"
	return fieldErrors
}
