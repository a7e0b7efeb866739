package handlers_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"
)

func TestSignupAndLogin(t *testing.T) {
	srv := setupServer(t)

	client := newClient(t)
	resp := postForm(t, client, srv.URL+"/auth/signup", url.Values{
		"username": {"newuser"},
		"email":    {"NewUser@Example.com"},
		"password": {"secret99"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup failed with %d", resp.StatusCode)
	}

	var user models.User
	if err := db.DB.Where("username = ?", "newuser").First(&user).Error; err != nil {
		t.Fatalf("user should be persisted: %v", err)
	}
	if user.Email != "newuser@example.com" {
		t.Errorf("email should be stored lowercased, got %q", user.Email)
	}
	if user.Password == "secret99" {
		t.Errorf("password must not be stored in plaintext")
	}
	if !utils.CheckPasswordHash("secret99", user.Password) {
		t.Errorf("stored hash should verify the password")
	}

	resp = postForm(t, client, srv.URL+"/auth/login", url.Values{
		"email":    {"newuser@example.com"},
		"password": {"secret99"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with %d", resp.StatusCode)
	}

	// Session sticks: the nav now shows the username
	_, body := getBody(t, client, srv.URL+"/")
	if !strings.Contains(body, "/auth/logout") {
		t.Errorf("logged-in nav should offer logout")
	}
}

func TestSignupValidation(t *testing.T) {
	srv := setupServer(t)

	cases := []url.Values{
		{"username": {""}, "email": {"a@b.com"}, "password": {"secret99"}},
		{"username": {"ok"}, "email": {"a@b.com"}, "password": {"secret99"}},          // too short
		{"username": {"has space"}, "email": {"a@b.com"}, "password": {"secret99"}},   // not alphanum
		{"username": {"gooduser"}, "email": {"not-an-email"}, "password": {"secret99"}},
		{"username": {"gooduser"}, "email": {"a@b.com"}, "password": {"tiny"}},
	}

	client := newClient(t)
	for i, form := range cases {
		resp := postForm(t, client, srv.URL+"/auth/signup", form)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}

	var count int64
	db.DB.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid signups must not persist, got %d users", count)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	srv := setupServer(t)
	createUser(t, "taken", "")

	resp := postForm(t, newClient(t), srv.URL+"/auth/signup", url.Values{
		"username": {"taken"},
		"email":    {"other@example.com"},
		"password": {"secret99"},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate username should conflict, got %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "victim", "")

	resp := postForm(t, newClient(t), srv.URL+"/auth/login", url.Values{
		"email":    {user.Email},
		"password": {"not-the-password"},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password should yield 401, got %d", resp.StatusCode)
	}
}

func TestLoginHonorsNextParam(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "returning", "")

	client := noRedirectClient(t)
	resp := postForm(t, client, srv.URL+"/auth/login", url.Values{
		"email":    {user.Email},
		"password": {testPassword},
		"next":     {"/follow"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/follow" {
		t.Errorf("login should honor next, got %q", loc)
	}
}

func TestLoginRejectsExternalNext(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "careful", "")

	client := noRedirectClient(t)
	resp := postForm(t, client, srv.URL+"/auth/login", url.Values{
		"email":    {user.Email},
		"password": {testPassword},
		"next":     {"https://evil.example.com/"},
	})
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("external next must be ignored, got %q", loc)
	}
}

func TestLogout(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "leaver", "")

	client := login(t, srv, user)
	getBody(t, client, srv.URL+"/auth/logout")

	_, body := getBody(t, client, srv.URL+"/")
	if strings.Contains(body, "/auth/logout") {
		t.Errorf("logged-out nav should not offer logout")
	}
}

func TestPasswordReset(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "forgetful", "")

	client := newClient(t)
	postForm(t, client, srv.URL+"/auth/forgot", url.Values{"email": {user.Email}})

	var reloaded models.User
	db.DB.First(&reloaded, user.ID)
	if len(reloaded.VerifyCode) != 6 {
		t.Fatalf("forgot should issue a 6-digit code, got %q", reloaded.VerifyCode)
	}

	// Wrong code is rejected
	resp := postForm(t, client, srv.URL+"/auth/reset", url.Values{
		"email":    {user.Email},
		"code":     {"000000x"},
		"password": {"brandnew1"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong code should be rejected, got %d", resp.StatusCode)
	}

	resp = postForm(t, client, srv.URL+"/auth/reset", url.Values{
		"email":    {user.Email},
		"code":     {reloaded.VerifyCode},
		"password": {"brandnew1"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset with the right code should succeed, got %d", resp.StatusCode)
	}

	db.DB.First(&reloaded, user.ID)
	if reloaded.VerifyCode != "" {
		t.Errorf("reset code should be cleared after use")
	}
	if !utils.CheckPasswordHash("brandnew1", reloaded.Password) {
		t.Errorf("new password should verify")
	}
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "enrolled", "")

	const neutral = "If that email exists, a reset code has been sent."

	client := newClient(t)
	resp := postForm(t, client, srv.URL+"/auth/forgot", url.Values{"email": {user.Email}})
	known, _ := io.ReadAll(resp.Body)

	resp = postForm(t, client, srv.URL+"/auth/forgot", url.Values{"email": {"nobody@example.com"}})
	unknown, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(known), neutral) {
		t.Errorf("known email should get the neutral message")
	}
	if !strings.Contains(string(unknown), neutral) {
		t.Errorf("unknown email should get the neutral message")
	}
}

func TestChangePassword(t *testing.T) {
	srv := setupServer(t)
	user := createUser(t, "changer", "")

	client := login(t, srv, user)

	resp := postForm(t, client, srv.URL+"/auth/password", url.Values{
		"old_password": {"wrong"},
		"new_password": {"whatever9"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong current password should be rejected, got %d", resp.StatusCode)
	}

	resp = postForm(t, client, srv.URL+"/auth/password", url.Values{
		"old_password": {testPassword},
		"new_password": {"freshpass1"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change should succeed, got %d", resp.StatusCode)
	}

	var reloaded models.User
	db.DB.First(&reloaded, user.ID)
	if !utils.CheckPasswordHash("freshpass1", reloaded.Password) {
		t.Errorf("changed password should verify")
	}
}
