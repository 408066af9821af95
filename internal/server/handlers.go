package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/policy-generator/internal/server/middleware"
	"github.com/jonathan/policy-generator/internal/types"
	"go.uber.org/zap"
)

// maxRequestBody bounds the JSON body of a generation request.
const maxRequestBody = 64 << 10

// handleGeneratePolicy turns one PolicyRequest into one document.
func (s *Server) handleGeneratePolicy(w http.ResponseWriter, r *http.Request) {
	var req types.PolicyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.logger.Debug("undecodable request body", zap.Error(err))
		s.metrics.Generations.WithLabelValues("unknown", "invalid").Inc()
		s.errorResponse(w, http.StatusBadRequest, MsgRequired)
		return
	}

	if err := req.Validate(); err != nil {
		s.logger.Debug("invalid request", zap.Error(err))
		s.metrics.Generations.WithLabelValues(policyTypeLabel(req.PolicyType), "invalid").Inc()
		s.errorResponse(w, HTTPStatus(err), publicMessage(err))
		return
	}

	credential := middleware.Credential(r.Context())
	log := s.logger.With(
		zap.String("policy_type", req.PolicyType.String()),
		zap.Bool("credential_present", credential != ""),
	)
	if subject := middleware.Subject(r.Context()); subject != "" {
		log = log.With(zap.String("subject", subject))
	}

	policy, err := s.generator.Generate(r.Context(), req.BusinessDescription, req.PolicyType, credential)
	if err != nil {
		log.Error("policy generation failed", zap.Error(err))
		s.metrics.Generations.WithLabelValues(req.PolicyType.String(), "failed").Inc()
		s.errorResponse(w, HTTPStatus(err), publicMessage(err))
		return
	}

	s.metrics.Generations.WithLabelValues(req.PolicyType.String(), "ok").Inc()
	s.jsonResponse(w, http.StatusOK, types.PolicyResponse{
		Policy: policy,
		Source: types.SourceGenerated,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusNotFound, "Not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// policyTypeLabel keeps metric label cardinality bounded.
func policyTypeLabel(pt types.PolicyType) string {
	if pt.Valid() {
		return pt.String()
	}
	return "unknown"
}
