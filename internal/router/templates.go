package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"
)

// LoadTemplates assembles the multitemplate renderer from
// layouts + includes + components + one view per registered name.
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t interface{}) string {
			var timeVal time.Time
			switch v := t.(type) {
			case time.Time:
				timeVal = v
			default:
				return ""
			}

			duration := time.Since(timeVal)
			seconds := int(duration.Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%ds ago", seconds)
			} else if seconds < 3600 {
				return fmt.Sprintf("%dm ago", seconds/60)
			} else if seconds < 86400 {
				return fmt.Sprintf("%dh ago", seconds/3600)
			} else if seconds < 2592000 {
				return fmt.Sprintf("%dd ago", seconds/86400)
			} else if seconds < 31536000 {
				return fmt.Sprintf("%dmo ago", seconds/2592000)
			}
			return fmt.Sprintf("%dy ago", seconds/31536000)
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	// Manual registration to ensure keys match handler expectation
	// Feed
	r.AddFromFilesFuncs("feed/home.html", funcMap, assemble(templatesDir+"/views/feed/home.html")...)
	r.AddFromFilesFuncs("feed/follow.html", funcMap, assemble(templatesDir+"/views/feed/follow.html")...)

	// Group
	r.AddFromFilesFuncs("group/list.html", funcMap, assemble(templatesDir+"/views/group/list.html")...)

	// Post
	r.AddFromFilesFuncs("post/detail.html", funcMap, assemble(templatesDir+"/views/post/detail.html")...)
	r.AddFromFilesFuncs("post/create.html", funcMap, assemble(templatesDir+"/views/post/create.html")...)
	r.AddFromFilesFuncs("post/edit.html", funcMap, assemble(templatesDir+"/views/post/edit.html")...)

	// User
	r.AddFromFilesFuncs("user/profile.html", funcMap, assemble(templatesDir+"/views/user/profile.html")...)

	// Auth
	r.AddFromFilesFuncs("auth/login.html", funcMap, assemble(templatesDir+"/views/auth/login.html")...)
	r.AddFromFilesFuncs("auth/signup.html", funcMap, assemble(templatesDir+"/views/auth/signup.html")...)
	r.AddFromFilesFuncs("auth/forgot_password.html", funcMap, assemble(templatesDir+"/views/auth/forgot_password.html")...)
	r.AddFromFilesFuncs("auth/reset_password.html", funcMap, assemble(templatesDir+"/views/auth/reset_password.html")...)
	r.AddFromFilesFuncs("auth/password.html", funcMap, assemble(templatesDir+"/views/auth/password.html")...)

	// About
	r.AddFromFilesFuncs("about/author.html", funcMap, assemble(templatesDir+"/views/about/author.html")...)
	r.AddFromFilesFuncs("about/tech.html", funcMap, assemble(templatesDir+"/views/about/tech.html")...)

	// Error
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
