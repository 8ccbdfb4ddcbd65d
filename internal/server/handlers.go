package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
	"github.com/hyperjump/manabu/internal/research"
)

// EmptyTopicText is shown when the form is submitted without a topic.
const EmptyTopicText = "Please enter a topic."

func (s *Server) page() pageData {
	return pageData{BackendURL: backendOrigin(s.config.Services.DecomposeURL)}
}

// backendOrigin returns scheme://host of the decomposition service, where uploads and exports live.
func backendOrigin(serviceURL string) string {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := s.page()
	if err := pageTemplates.ExecuteTemplate(w, "head", data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
		return
	}
	_ = pageTemplates.ExecuteTemplate(w, "tail", data)
}

func (s *Server) handleResearchPage(w http.ResponseWriter, r *http.Request) {
	topic := r.FormValue("topic")
	data := s.page()
	data.Topic = topic

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplates.ExecuteTemplate(w, "head", data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	renderer := render.NewHTMLRenderer()
	sink := render.NewWriterSink(w)
	ctrl := research.New(s.services, renderer, sink, s.config.Research.RenderMode)
	if _, err := ctrl.Submit(r.Context(), topic); errors.Is(err, models.ErrEmptyTopic) {
		_ = sink.Append(renderer.Message(render.MessageError, EmptyTopicText))
	}
	_ = pageTemplates.ExecuteTemplate(w, "tail", data)
}

func (s *Server) handleResearchAPI(w http.ResponseWriter, r *http.Request) {
	var req models.DecomposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.NewString()
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Run-Id", runID)
	w.WriteHeader(http.StatusOK)

	renderer := render.NewJSONRenderer(runID)
	sink := render.NewWriterSink(w)
	ctrl := research.New(s.services, renderer, sink, s.config.Research.RenderMode)
	summary, err := ctrl.SubmitRun(r.Context(), runID, req.Topic)
	if r.Context().Err() != nil {
		return
	}
	if err != nil {
		s.logger.Debug("research run ended with error", zap.String("run_id", runID), zap.Error(err))
	}
	_ = sink.Append(renderer.Done(summary.Rendered, summary.Failed))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
