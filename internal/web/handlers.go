package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
	"github.com/chris/cetes/internal/scheduler"
)

const maxUpload = 25 << 20

type chatRequest struct {
	Message   string          `json:"message"`
	History   []history.Entry `json:"history"`
	Shape     string          `json:"shape"`
	SessionID string          `json:"session_id"`
}

type chatResponse struct {
	SessionID string          `json:"session_id"`
	History   []history.Entry `json:"history"`
	Display   string          `json:"display,omitempty"`
	Message   string          `json:"message"`
	HTML      string          `json:"html,omitempty"`
	AudioURL  string          `json:"audio_url,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// handleChat runs one turn. The body is JSON, or multipart with an "audio"
// file plus the same fields as form values. When the client sends no
// history, the session's stored pairs are used.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger()

	req, audioPath, err := s.parseChat(r)
	if audioPath != "" {
		defer os.Remove(audioPath)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	shape := history.ParseShape(req.Shape)

	entries := req.History
	if entries == nil {
		pairs, err := s.db.SessionHistory(req.SessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		entries = history.Render(pairs, shape)
	}

	out := s.responder.Respond(r.Context(), agent.TurnInput{
		Text:      req.Message,
		AudioPath: audioPath,
		History:   entries,
		Shape:     shape,
		Data:      agent.LoadDataContext(s.db),
	})

	resp := chatResponse{
		SessionID: req.SessionID,
		History:   out.History,
		Display:   out.Display,
		Message:   out.Reply,
		Error:     out.Error,
	}
	if resp.History == nil {
		resp.History = []history.Entry{}
	}
	if out.Outcome != nil {
		if err := s.db.AppendTurn(req.SessionID, out.Display, out.Reply); err != nil {
			log.Error("persisting chat turn", "session", req.SessionID, "err", err)
		}
		resp.HTML = s.renderMarkdown(out.Reply)
	}
	if out.AudioPath != "" {
		resp.AudioURL = "/api/audio/" + filepath.Base(out.AudioPath)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseChat(r *http.Request) (chatRequest, string, error) {
	var req chatRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpload)).Decode(&req); err != nil {
			return req, "", fmt.Errorf("invalid chat request: %w", err)
		}
		return req, "", nil
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return req, "", fmt.Errorf("invalid upload: %w", err)
	}
	req.Message = r.FormValue("message")
	req.Shape = r.FormValue("shape")
	req.SessionID = r.FormValue("session_id")
	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return req, "", fmt.Errorf("invalid history: %w", err)
		}
	}

	file, header, err := r.FormFile("audio")
	if err == http.ErrMissingFile {
		return req, "", nil
	}
	if err != nil {
		return req, "", fmt.Errorf("reading audio: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".webm"
	}
	path := filepath.Join(s.audioDir, "in-"+uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return req, "", fmt.Errorf("saving audio: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return req, path, fmt.Errorf("saving audio: %w", err)
	}
	return req, path, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("session_id required"))
		return
	}
	if err := s.db.ClearSession(req.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": req.SessionID, "history": []history.Entry{}})
}

type dataResponse struct {
	Status    string             `json:"status"`
	Refresh   *db.Refresh        `json:"refresh,omitempty"`
	Snapshot  *market.Snapshot   `json:"snapshot,omitempty"`
	Forecasts []forecast.Result  `json:"forecasts"`
	Summaries []forecast.Summary `json:"summaries"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	resp, err := s.data()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) data() (dataResponse, error) {
	resp := dataResponse{Forecasts: []forecast.Result{}, Summaries: []forecast.Summary{}}

	last, err := s.db.LastRefresh()
	if err != nil {
		return resp, err
	}
	resp.Refresh = last
	resp.Status = scheduler.Status(last, s.now())

	frame, err := s.db.LoadFrame()
	if err != nil {
		return resp, err
	}
	resp.Snapshot = frame.Snapshot()

	results, err := s.db.ListForecasts()
	if err != nil {
		return resp, err
	}
	for _, res := range results {
		resp.Forecasts = append(resp.Forecasts, res)
		if sum, ok := res.Summary(); ok {
			resp.Summaries = append(resp.Summaries, sum)
		}
	}
	return resp, nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("refresh not configured"))
		return
	}
	if _, err := s.refresher.Refresh(r.Context()); err != nil {
		logging.Logger().Error("manual refresh failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleData(w, r)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".mp3") || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func (s *Server) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		logging.Logger().Warn("rendering markdown", "err", err)
		return ""
	}
	return buf.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Warn("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
