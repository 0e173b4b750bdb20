package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/seantiz/lchgate/internal/model"
)

const maxBodySize = 1 << 20 // 1 MB

// validationError is a request body problem reported to the caller as 400.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	message, err := readStringField(w, r, model.FieldMessage)
	if err != nil {
		s.writeRequestError(w, err)
		return
	}

	msg := s.gw.Call(message)
	s.logger.Debug("message queued", "message_id", msg.ID, "bytes", len(message))
	s.writeOK(w)
}

func (s *Server) handleSetResult(w http.ResponseWriter, r *http.Request) {
	result, err := readStringField(w, r, model.FieldResult)
	if err != nil {
		s.writeRequestError(w, err)
		return
	}

	s.gw.SetResult(result)
	s.writeOK(w)
}

func (s *Server) handleGetResult(w http.ResponseWriter, _ *http.Request) {
	result, ok := s.gw.TakeResult()
	if !ok {
		s.writeJSON(w, http.StatusUnauthorized, model.Response{Status: model.StatusNoResult})
		return
	}
	s.writeJSON(w, http.StatusOK, model.Response{Status: model.StatusOK, Result: &result})
}

// writeRequestError maps a body-reading error to its response.
func (s *Server) writeRequestError(w http.ResponseWriter, err error) {
	var vErr *validationError
	if errors.As(err, &vErr) {
		s.writeError(w, http.StatusBadRequest, vErr.msg)
		return
	}
	s.logger.Error("read request body", "error", err)
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

// readStringField decodes a JSON object body and returns its string member key.
func readStringField(w http.ResponseWriter, r *http.Request, key string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", &validationError{msg: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)}
		}
		return "", fmt.Errorf("read body: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", &validationError{msg: fmt.Sprintf("Invalid JSON: %v", err)}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return "", &validationError{msg: fmt.Sprintf("Expected JSON object with key '%s'", key)}
	}
	field, ok := obj[key]
	if !ok {
		return "", &validationError{msg: fmt.Sprintf("Missing required key '%s'", key)}
	}
	text, ok := field.(string)
	if !ok {
		return "", &validationError{msg: fmt.Sprintf("'%s' must be a string", key)}
	}
	return text, nil
}
