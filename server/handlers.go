package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"proposal_agent/export"
	"proposal_agent/generator"
	"proposal_agent/logging"
	"proposal_agent/session"
)

const maxBodyBytes = 1 << 20

// --- Handlers ---

type analyzeReq struct {
	Transcript string `json:"transcript"`
}

type analyzeResp struct {
	SessionID     string                   `json:"sessionId,omitempty"`
	Brief         generator.Brief          `json:"brief"`
	MissingFields []generator.MissingField `json:"missingFields"`
}

type generateReq struct {
	Brief     *generator.Brief `json:"brief"`
	SessionID string           `json:"sessionId"`
}

type sessionResp struct {
	*session.Session
	Tags []string `json:"tags"`
}

type libraryResp struct {
	Version int            `json:"version"`
	Entries []libraryEntry `json:"entries"`
}

type libraryEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Industry string   `json:"industry"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context(), s.log)
	key, ok := s.requireCredential(w, r)
	if !ok {
		return
	}

	var req analyzeReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be JSON with a transcript field.", string(generator.KindValidation))
		return
	}
	transcript := strings.TrimSpace(req.Transcript)
	if utf8.RuneCountInString(transcript) < s.validation.MinTranscriptChars {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Transcript is too short. Paste at least %d characters.", s.validation.MinTranscriptChars),
			string(generator.KindValidation))
		return
	}

	res, err := s.extractor.Extract(r.Context(), transcript, key)
	if err != nil {
		writeGeneratorError(w, err)
		return
	}

	sess := session.New(transcript, res)
	resp := analyzeResp{Brief: res.Brief, MissingFields: res.MissingFields}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		log.WithError(err).Warn("session not saved, returning brief without a session", nil)
	} else {
		resp.SessionID = sess.ID
	}
	writeJSON(w, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context(), s.log)
	key, ok := s.requireCredential(w, r)
	if !ok {
		return
	}

	var req generateReq
	if err := decodeBody(w, r, &req); err != nil || req.Brief == nil {
		writeError(w, http.StatusBadRequest, "Brief is required.", string(generator.KindValidation))
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming is not supported by this connection.", "internal")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := s.generator.Generate(ctx, *req.Brief, key)
	for ev := range events {
		if ev.Type == generator.EventComplete && req.SessionID != "" {
			if p, ok := ev.Data.(generator.Proposal); ok {
				s.attachProposal(ctx, log, req.SessionID, req.Brief, p)
			}
		}
		if err := sse.send(ev); err != nil {
			log.Info("client disconnected during generation", map[string]interface{}{"event": string(ev.Type)})
			cancel()
			for range events {
			}
			return
		}
	}
}

// attachProposal stores a finished proposal on its session. Failures are logged only: the caller
// still receives the proposal on the stream.
func (s *Server) attachProposal(ctx context.Context, log logging.Logger, id string, brief *generator.Brief, p generator.Proposal) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		log.WithError(err).Warn("proposal not attached to session", map[string]interface{}{"sessionId": id})
		return
	}
	b := *brief
	sess.Brief = &b
	sess.MissingFields = generator.MissingFields(b)
	sess.Proposal = &p
	if err := s.sessions.Save(ctx, sess); err != nil {
		log.WithError(err).Warn("proposal not attached to session", map[string]interface{}{"sessionId": id})
	}
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, sessionResp{Session: sess, Tags: export.Tags(sess.Brief)})
}

// handleSessionDelete discards a session so the next analysis starts clean.
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookupSession(w, r); !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		loggerFrom(r.Context(), s.log).WithError(err).Error("session delete failed", nil)
		writeError(w, http.StatusInternalServerError, "Session store unavailable.", "internal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	artifact, err := export.ParseArtifact(r.PathValue("artifact"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown export. Use deck, talktrack or faq.", string(generator.KindValidation))
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown format. Use txt or html.", string(generator.KindValidation))
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if sess.Proposal == nil {
		writeError(w, http.StatusConflict, "Proposal has not been generated yet.", "not_ready")
		return
	}

	body, filename, err := export.Render(artifact, format, *sess.Proposal, sess.Brief, s.now())
	if err != nil {
		loggerFrom(r.Context(), s.log).WithError(err).Error("export failed", nil)
		writeError(w, http.StatusInternalServerError, "Export failed.", "internal")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	summaries := s.corpus.Summaries()
	entries := make([]libraryEntry, len(summaries))
	for i, e := range summaries {
		entries[i] = libraryEntry{ID: e.ID, Title: e.Title, Industry: e.Industry, Tags: e.Tags, Summary: e.Summary}
	}
	writeJSON(w, libraryResp{Version: s.corpus.Version, Entries: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// requireCredential reads the caller's API key from x-api-key or a bearer token.
func (s *Server) requireCredential(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get("x-api-key"))
	if key == "" {
		if auth := r.Header.Get("Authorization"); len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
			key = strings.TrimSpace(auth[len("Bearer "):])
		}
	}
	if len(key) < s.validation.MinCredentialChars {
		writeError(w, http.StatusUnauthorized, "Missing API key.", string(generator.KindAuthentication))
		return "", false
	}
	return key, true
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found or expired.", "not_found")
		return nil, false
	}
	if err != nil {
		loggerFrom(r.Context(), s.log).WithError(err).Error("session lookup failed", nil)
		writeError(w, http.StatusInternalServerError, "Session store unavailable.", "internal")
		return nil, false
	}
	return sess, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
