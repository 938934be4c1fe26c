package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/log"
)

// decodeBody reads the JSON request body into v, answering 400 on failure.
// An empty body is accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	err := render.DecodeJSON(r.Body, v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
			"%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		return false
	}
	httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "malformed JSON body")
	return false
}
