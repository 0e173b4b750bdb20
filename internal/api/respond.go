package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/seantiz/lchgate/internal/model"
)

// writeJSON writes a JSON response with the given status code and an
// explicit Content-Length.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"status":"error","error":"failed to encode response"}`)
	}
	s.writeBody(w, status, "application/json", body)
}

// writeText writes a plain text response.
func (s *Server) writeText(w http.ResponseWriter, status int, text string) {
	s.writeBody(w, status, "text/plain; charset=utf-8", []byte(text))
}

func (s *Server) writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// writeOK writes {"status":"ok"}.
func (s *Server) writeOK(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, model.Response{Status: model.StatusOK})
}

// writeError writes {"status":"error","error":message}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, model.Response{Status: model.StatusError, Error: message})
}
