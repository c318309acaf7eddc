package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"proposal_agent/config"
	"proposal_agent/generator"
	"proposal_agent/library"
	"proposal_agent/logging"
	"proposal_agent/session"
)

type Server struct {
	extractor  *generator.Extractor
	generator  *generator.Generator
	sessions   session.Store
	corpus     *library.Corpus
	validation config.ValidationConfig
	log        logging.Logger
	now        func() time.Time
}

// Deps are the collaborators a Server needs. Logger and Validation have defaults.
type Deps struct {
	Extractor  *generator.Extractor
	Generator  *generator.Generator
	Sessions   session.Store
	Corpus     *library.Corpus
	Validation config.ValidationConfig
	Logger     logging.Logger
}

func New(d Deps) (*Server, error) {
	if d.Extractor == nil {
		return nil, errors.New("extractor required")
	}
	if d.Generator == nil {
		return nil, errors.New("generator required")
	}
	if d.Sessions == nil {
		return nil, errors.New("session store required")
	}
	if d.Corpus == nil {
		d.Corpus = library.Default()
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Validation.MinTranscriptChars <= 0 {
		d.Validation.MinTranscriptChars = 50
	}
	if d.Validation.MinCredentialChars <= 0 {
		d.Validation.MinCredentialChars = 10
	}
	return &Server{
		extractor:  d.Extractor,
		generator:  d.Generator,
		sessions:   d.Sessions,
		corpus:     d.Corpus,
		validation: d.Validation,
		log:        d.Logger,
		now:        time.Now,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /api/sessions/{id}/export/{artifact}", s.handleExport)
	mux.HandleFunc("GET /api/library", s.handleLibrary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return logMiddleware(s.log, mux)
}

// --- Helpers ---

type errorResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSONStatus(w, status, errorResp{Error: msg, Code: code})
}

// writeGeneratorError maps a classified failure to a status code and a user-safe message.
func writeGeneratorError(w http.ResponseWriter, err error) {
	kind := generator.KindOf(err)
	writeError(w, statusFor(kind), generator.UserMessage(err), string(kind))
}

func statusFor(kind generator.ErrorKind) int {
	switch kind {
	case generator.KindValidation:
		return http.StatusBadRequest
	case generator.KindAuthentication:
		return http.StatusUnauthorized
	case generator.KindQuota:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}
