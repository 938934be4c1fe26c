package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/model"
)

func SaveResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := model.ResponseInput{}
		if !decodeBody(w, r, &input, false) {
			return
		}

		response, err := app.SaveResponse(r.Context(), input)
		if err != nil {
			httpx.LogServiceError(w, r, "db.insert_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := app.ListResponses(r.Context())
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_responses", err)
			return
		}

		render.JSON(w, r, responses)
	}
}

func ListSessionResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := app.ListSessionResponses(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_session_responses", err)
			return
		}

		render.JSON(w, r, responses)
	}
}
