package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/export"
	"github.com/hyperjump/manabu/internal/ingest"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
)

func (s *Server) handleGenerateSubTopics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Decomposer == nil {
		respondError(w, http.StatusServiceUnavailable, "sub-topic generation is not configured")
		return
	}
	var req models.DecomposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Validate() != nil {
		respondError(w, http.StatusBadRequest, "No topic provided")
		return
	}
	s.logger.Debug("generate sub-topics request", zap.String("topic", req.Topic))
	subTopics, err := s.deps.Decomposer.Decompose(r.Context(), req.Topic)
	if err != nil {
		s.logger.Error("sub-topic generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.DecomposeResponse{SubTopics: &subTopics})
}

func (s *Server) handleQuerySubTopic(w http.ResponseWriter, r *http.Request) {
	if s.deps.Content == nil {
		respondError(w, http.StatusServiceUnavailable, "content search is not configured")
		return
	}
	var req models.SubTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Validate() != nil {
		respondError(w, http.StatusBadRequest, "No sub-topic provided")
		return
	}
	results, err := s.deps.Content.SearchContent(r.Context(), req.SubTopic)
	if err != nil {
		s.logger.Error("content search failed", zap.String("sub_topic", req.SubTopic), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.ContentResult{}
	}
	respondJSON(w, http.StatusOK, models.ContentResponse{Results: results})
}

func (s *Server) handleSearchYouTube(w http.ResponseWriter, r *http.Request) {
	if s.deps.Videos == nil {
		respondError(w, http.StatusServiceUnavailable, "video search is not configured")
		return
	}
	var req models.SubTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Validate() != nil {
		respondError(w, http.StatusBadRequest, "No sub-topic provided")
		return
	}
	videos, err := s.deps.Videos.SearchVideos(r.Context(), req.SubTopic)
	if err != nil {
		s.logger.Error("video search failed", zap.String("sub_topic", req.SubTopic), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []models.VideoResult{}
	}
	respondJSON(w, http.StatusOK, models.VideoResponse{Videos: videos})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ingester == nil {
		respondError(w, http.StatusServiceUnavailable, "library is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadMB<<20)
	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No file part or selected file in the request")
		return
	}
	defer file.Close()

	n, err := s.deps.Ingester.IngestFile(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFile):
		respondError(w, http.StatusBadRequest, "Unsupported file type. Upload an .html or .txt file.")
		return
	case errors.Is(err, ingest.ErrNotUTF8):
		respondError(w, http.StatusBadRequest, "Unable to decode the file. Ensure it is UTF-8 encoded.")
		return
	case err != nil:
		s.logger.Error("upload failed", zap.String("file", header.Filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n == 0 {
		respondJSON(w, http.StatusOK, map[string]string{"message": "No video IDs found in the file"})
		return
	}
	s.logger.Info("upload processed", zap.String("file", header.Filename), zap.Int("videos", n))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "File uploaded and processed successfully",
		"total_videos": n,
	})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if s.deps.Remover == nil {
		respondError(w, http.StatusServiceUnavailable, "library is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	err := s.deps.Remover.DeleteVideo(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "Video not found")
	case err != nil:
		s.logger.Error("video delete failed", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
	}
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "library.csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (s *Server) handleDownloadXLSX(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "library.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(io.Writer, []*models.Video) error) {
	if s.deps.Library == nil {
		respondError(w, http.StatusServiceUnavailable, "library is not configured")
		return
	}
	videos, err := export.AllVideos(r.Context(), s.deps.Library)
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, videos); err != nil {
		s.logger.Error("export failed", zap.String("file", filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeContent(w, r, filename, time.Time{}, bytes.NewReader(buf.Bytes()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"decompose": s.deps.Decomposer != nil,
		"content":   s.deps.Content != nil,
		"videos":    s.deps.Videos != nil,
	}
	if s.deps.Library != nil {
		count, err := s.deps.Library.CountVideos(r.Context())
		if err != nil {
			s.logger.Error("status: count videos failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["library_videos"] = count
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
