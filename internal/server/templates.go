package server

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/taskdock/task-front/internal/log"
)

//go:embed templates/error.html
var errorPageTemplateHTML string

//go:embed templates/home.html
var homePageTemplateHTML string

//go:embed templates/login.html
var loginPageTemplateHTML string

var errorPageTemplate = template.Must(template.New("error").Parse(errorPageTemplateHTML))
var homePageTemplate = template.Must(template.New("home").Parse(homePageTemplateHTML))
var loginPageTemplate = template.Must(template.New("login").Parse(loginPageTemplateHTML))

// ErrorPageData is the data for the login failure page
type ErrorPageData struct {
	Title   string
	Message string
}

// HomePageData is the data for the signed-in landing page
type HomePageData struct {
	UserID string
}

// LoginPageData is the data for the provider selection page
type LoginPageData struct {
	Providers []string
}

func renderFlowError(w http.ResponseWriter, kind FlowErrorKind, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	err := errorPageTemplate.Execute(w, ErrorPageData{
		Title:   kind.title(),
		Message: kind.userMessage(),
	})
	if err != nil {
		log.LogError("Failed to render error page: %v", err)
	}
}
