package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-kiosk/config"
	"github.com/mbolis/survey-kiosk/survey"
)

type App struct {
	*survey.Service
	// nil when admin auth is not configured
	*oauth.BearerServer
	config.Config
}
