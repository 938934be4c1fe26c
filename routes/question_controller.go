package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/model"
)

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := app.ListQuestions(r.Context())
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_questions", err)
			return
		}

		render.JSON(w, r, questions)
	}
}

func GetQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, err := app.GetQuestion(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogServiceError(w, r, "db.get_question", err)
			return
		}

		render.JSON(w, r, question)
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := model.QuestionInput{}
		if !decodeBody(w, r, &input, false) {
			return
		}

		question, err := app.CreateQuestion(r.Context(), input)
		if err != nil {
			httpx.LogServiceError(w, r, "db.insert_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch := model.QuestionPatch{}
		if !decodeBody(w, r, &patch, false) {
			return
		}

		question, err := app.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			httpx.LogServiceError(w, r, "db.update_question", err)
			return
		}

		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.DeleteQuestion(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogServiceError(w, r, "db.delete_question", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
