package httpserver

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListForTier(w http.ResponseWriter, r *http.Request) {
	tier, err := strconv.Atoi(r.PathValue("tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tier", "tier must be an integer", false)
		return
	}
	resp, err := s.modules.Distribution.Handler.ListForTierHandler(r.Context(), tier, r.PathValue("category"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Distribution.Handler.GetIndexHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
