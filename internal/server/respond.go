package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"file-drop/internal/blob"
	"file-drop/internal/files"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a files error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, files.ErrValidation), errors.Is(err, files.ErrAlreadyDeleted):
		return http.StatusBadRequest
	case errors.Is(err, files.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, files.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blob.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the mapped status. Server-side failures are
// logged with the operation and answered with a generic body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		s.reqLog(r, op).WithError(err).Error("request failed")
		writeErrorMsg(w, status, "server error")
		return
	case http.StatusServiceUnavailable:
		s.reqLog(r, op).WithError(err).Warn("blob store unavailable")
		writeErrorMsg(w, status, "storage temporarily unavailable")
		return
	}
	writeErrorMsg(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
