package api

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status    string `json:"status"`
	Processes int    `json:"processes"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := healthResponse{Status: "ok", Processes: s.engine.Registry().Len()}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode healthz response", "error", err)
	}
}
