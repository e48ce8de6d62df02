package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
	lifecyclehttp "maestro/contexts/content-governance/proposal-lifecycle/transport/http"
)

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required", false)
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", false)
		return false
	}
	return true
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.CreateProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.modules.Proposals.Handler.CreateProposalHandler(r.Context(), userID, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.ProposalFilter{
		Status:             entities.ProposalStatus(strings.TrimSpace(query.Get("status"))),
		Category:           entities.Category(strings.TrimSpace(query.Get("category"))),
		AuthorID:           query.Get("author_id"),
		OriginalProposalID: query.Get("original_proposal_id"),
	}
	if raw := strings.TrimSpace(query.Get("tier")); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_tier", "tier must be an integer", false)
			return
		}
		filter.TargetTier = tier
	}
	resp, err := s.modules.Proposals.Handler.ListProposalsHandler(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Proposals.Handler.GetProposalHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.UpdateProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.modules.Proposals.Handler.UpdateProposalHandler(r.Context(), userID, r.PathValue("proposal_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.modules.Proposals.Handler.DeleteProposalHandler(r.Context(), userID, r.PathValue("proposal_id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Proposals.Handler.SubmitProposalHandler(r.Context(), userID, r.PathValue("proposal_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.modules.Proposals.Handler.CastVoteHandler(r.Context(), userID, r.PathValue("proposal_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Proposals.Handler.GetTallyHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleManagementChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.ManagementChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.modules.Proposals.Handler.RequestManagementChangeHandler(
		r.Context(),
		userID,
		r.Header.Get("Idempotency-Key"),
		r.PathValue("proposal_id"),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListReviewers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Reviewers.Handler.ListReviewersHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
