package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/survey"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError sends an HTTP response with the given status and a JSON error body
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, entity string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	WriteError(w, r, http.StatusNotFound, entity+" not found")
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	WriteError(w, r, status, http.StatusText(status))
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	WriteError(w, r, status, errMsg)
}

// Will map a survey service error to its HTTP status: 400 for validation
// failures, 404 for missing entities, 409 for duplicates and 500 otherwise
func LogServiceError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var notFound *survey.NotFoundError
	var invalid *survey.ValidationError
	switch {
	case errors.As(err, &notFound):
		LogNotFound(w, r, code, notFound.Entity, notFound.ID)
	case errors.As(err, &invalid):
		LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "%s", invalid.Error())
	case errors.Is(err, survey.ErrInvalid):
		LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "invalid request")
	case errors.Is(err, survey.ErrNotFound):
		LogNotFound(w, r, code, "resource", "")
	case errors.Is(err, survey.ErrConflict):
		LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, code, "already exists")
	default:
		LogInternalError(w, r, code, err)
	}
}
