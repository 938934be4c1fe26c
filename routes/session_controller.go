package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/model"
)

func StartSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := model.SessionInput{}
		if !decodeBody(w, r, &input, true) {
			return
		}

		session, err := app.StartSession(r.Context(), input)
		if err != nil {
			httpx.LogServiceError(w, r, "db.insert_session", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, session)
	}
}

func ListSessions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := app.ListSessions(r.Context())
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_sessions", err)
			return
		}

		render.JSON(w, r, sessions)
	}
}

func GetSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := app.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_session", err)
			return
		}

		render.JSON(w, r, session)
	}
}

func PatchSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch := model.SessionPatch{}
		if !decodeBody(w, r, &patch, false) {
			return
		}

		session, err := app.PatchSession(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			httpx.LogServiceError(w, r, "db.update_session", err)
			return
		}

		render.JSON(w, r, session)
	}
}

func CompleteSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := app.CompleteSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogServiceError(w, r, "db.complete_session", err)
			return
		}

		render.JSON(w, r, session)
	}
}
