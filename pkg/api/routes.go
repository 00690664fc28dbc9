package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/filters", s.HandleFilters)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/history", s.HandleHistory)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
