package handlers

import (
	"net/http"
	"strings"

	"inkwell/internal/db"
	"inkwell/internal/forms"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	mailService *services.MailService
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		mailService: services.NewMailService(),
	}
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	Render(c, http.StatusOK, "auth/signup.html", nil)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var form forms.SignupForm
	if fieldErrors := forms.Bind(c, &form); fieldErrors != nil {
		Render(c, http.StatusBadRequest, "auth/signup.html", gin.H{
			"FormErrors": fieldErrors,
			"Form":       form,
		})
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		Render(c, http.StatusInternalServerError, "auth/signup.html", gin.H{
			"Error": "Could not create account",
			"Form":  form,
		})
		return
	}

	user := models.User{
		Username: form.Username,
		Email:    strings.ToLower(form.Email),
		Password: hash,
		FullName: form.FullName,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		// Unique index on username/email
		Render(c, http.StatusConflict, "auth/signup.html", gin.H{
			"Error": "Username or email already taken",
			"Form":  form,
		})
		return
	}

	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Success": "Account created, you can log in now.",
	})
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.ToLower(c.PostForm("email"))
	password := c.PostForm("password")
	next := c.PostForm("next")

	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Error": "Wrong email or password",
			"Next":  next,
		})
		return
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Error": "Wrong email or password",
			"Next":  next,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	// Send the caller back where they came from
	if next != "" && strings.HasPrefix(next, "/") {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowForgotPassword(c *gin.Context) {
	Render(c, http.StatusOK, "auth/forgot_password.html", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	email := strings.ToLower(c.PostForm("email"))

	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		// Don't reveal whether the account exists
		Render(c, http.StatusOK, "auth/reset_password.html", gin.H{
			"Success": "If that email exists, a reset code has been sent.",
			"Email":   email,
		})
		return
	}

	code := utils.GenerateRandomCode(6)
	user.VerifyCode = code
	db.DB.Save(&user)
	h.mailService.SendPasswordResetEmail(email, code)

	// Same message as the unknown-email branch
	Render(c, http.StatusOK, "auth/reset_password.html", gin.H{
		"Success": "If that email exists, a reset code has been sent.",
		"Email":   email,
	})
}

func (h *AuthHandler) ShowResetPassword(c *gin.Context) {
	email := c.Query("email")
	Render(c, http.StatusOK, "auth/reset_password.html", gin.H{"Email": email})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	email := strings.ToLower(c.PostForm("email"))
	code := c.PostForm("code")
	newPassword := c.PostForm("password")

	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{
			"Error": "User not found",
			"Email": email,
		})
		return
	}

	if user.VerifyCode == "" || user.VerifyCode != code {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{
			"Error": "Wrong or expired reset code",
			"Email": email,
		})
		return
	}

	if len(newPassword) < 6 {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{
			"Error": "Password must be at least 6 characters",
			"Email": email,
		})
		return
	}

	hash, _ := utils.HashPassword(newPassword)
	user.Password = hash
	user.VerifyCode = ""
	db.DB.Save(&user)

	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Success": "Password reset, you can log in now.",
	})
}

func (h *AuthHandler) ShowChangePassword(c *gin.Context) {
	Render(c, http.StatusOK, "auth/password.html", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")

	if !utils.CheckPasswordHash(oldPassword, user.Password) {
		Render(c, http.StatusBadRequest, "auth/password.html", gin.H{
			"Error": "Current password is wrong",
		})
		return
	}

	if len(newPassword) < 6 {
		Render(c, http.StatusBadRequest, "auth/password.html", gin.H{
			"Error": "Password must be at least 6 characters",
		})
		return
	}

	hash, _ := utils.HashPassword(newPassword)
	db.DB.Model(user).Update("password", hash)

	Render(c, http.StatusOK, "auth/password.html", gin.H{
		"Success": "Password changed.",
	})
}
