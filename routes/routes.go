package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
		middlewares.CORS,
	)

	root.Get("/health", health)
	root.Mount("/api", apiRouter(app))

	if app.StaticDir != "" {
		root.Mount("/", http.FileServer(http.Dir(app.StaticDir)))
	}

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/questions", ListQuestions(app))
	api.Get("/questions/{id}", GetQuestion(app))
	api.Group(func(r chi.Router) {
		if app.BearerServer != nil {
			r.Use(middlewares.Admin(app.TokenSecret))
		}

		r.Post("/questions", CreateQuestion(app))
		r.Put("/questions/{id}", UpdateQuestion(app))
		r.Delete("/questions/{id}", DeleteQuestion(app))
	})

	api.Post("/sessions", StartSession(app))
	api.Get("/sessions", ListSessions(app))
	api.Get("/sessions/{id}", GetSession(app))
	api.Patch("/sessions/{id}", PatchSession(app))
	api.Post("/sessions/{id}/complete", CompleteSession(app))
	api.Get("/sessions/{id}/responses", ListSessionResponses(app))

	api.Post("/responses", SaveResponse(app))
	api.Get("/responses", ListResponses(app))

	if app.BearerServer != nil {
		api.Post("/login", Login(app))
		api.Post("/refresh", Refresh(app))
	}

	return api
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}
