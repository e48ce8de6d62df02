package httpserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	contentdistribution "maestro/contexts/content-governance/content-distribution"
	proposallifecycle "maestro/contexts/content-governance/proposal-lifecycle"
	reviewerauthority "maestro/contexts/content-governance/reviewer-authority"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

//go:embed openapi.json
var openAPIDocument []byte

var tracer = otel.Tracer("maestro/internal/platform/httpserver")

type Modules struct {
	Proposals    proposallifecycle.Module
	Reviewers    reviewerauthority.Module
	Distribution contentdistribution.Module
}

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	modules       Modules
	enableSwagger bool
}

func New(modules Modules, logger *slog.Logger, addr string, enableSwagger bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		modules:       modules,
		enableSwagger: enableSwagger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	if s.enableSwagger {
		s.mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(openAPIDocument)
		})
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.route("POST /v1/governance/proposals", s.handleCreateProposal)
	s.route("GET /v1/governance/proposals", s.handleListProposals)
	s.route("GET /v1/governance/proposals/{proposal_id}", s.handleGetProposal)
	s.route("PATCH /v1/governance/proposals/{proposal_id}", s.handleUpdateProposal)
	s.route("DELETE /v1/governance/proposals/{proposal_id}", s.handleDeleteProposal)
	s.route("POST /v1/governance/proposals/{proposal_id}/submit", s.handleSubmitProposal)
	s.route("POST /v1/governance/proposals/{proposal_id}/votes", s.handleCastVote)
	s.route("GET /v1/governance/proposals/{proposal_id}/tally", s.handleGetTally)
	s.route("POST /v1/governance/proposals/{proposal_id}/management", s.handleManagementChange)
	s.route("GET /v1/governance/reviewers", s.handleListReviewers)

	s.route("GET /v1/distribution/tiers/{tier}/{category}", s.handleListForTier)
	s.route("GET /v1/distribution/proposals/{proposal_id}/index", s.handleGetIndex)
}

// route registers pattern wrapped in a server span named after the pattern.
func (s *Server) route(pattern string, handler http.HandlerFunc) {
	s.mux.Handle(pattern, traced(pattern, handler))
}

func traced(pattern string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, pattern,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", pattern),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", rec.status))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
