package api

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writeText(w, http.StatusNotFound, "Not Found")
}
