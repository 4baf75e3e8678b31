package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/search"
	"github.com/azure/yt-comment-analyzer/internal/validation"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type statusResponse struct {
	VideoID string `json:"videoId"`
	Stage   string `json:"stage"`
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.ingester.GetMetrics()))
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Check("analyze", req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analyzeTimeout)
		defer cancel()
	}

	result, err := s.ingester.Analyze(ctx, req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var params search.Params
	if err := decodeBody(w, r, &params); err != nil {
		writeError(w, r, err)
		return
	}

	response, err := s.searcher.Search(r.Context(), params.Request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) analysisHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.ingester.GetAnalysis(r.Context(), mux.Vars(r)["videoId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video":    result.Video,
		"analysis": result.Analysis,
	})
}

// questionsHandler is a search pinned to the question category
func (s *Server) questionsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := search.Params{
		VideoID:  mux.Vars(r)["videoId"],
		Query:    query.Get("query"),
		Category: string(models.CategoryQuestion),
		SortBy:   query.Get("sortBy"),
	}

	var err error
	if params.Page, err = intParam(query.Get("page"), "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if params.Limit, err = intParam(query.Get("limit"), "limit"); err != nil {
		writeError(w, r, err)
		return
	}

	response, err := s.searcher.Search(r.Context(), params.Request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) reanalyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analyzeTimeout)
		defer cancel()
	}

	result, err := s.ingester.Reanalyze(ctx, mux.Vars(r)["videoId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["videoId"]
	stage, err := s.ingester.Status(r.Context(), videoID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{VideoID: videoID, Stage: string(stage)})
}

func intParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errs.Validation("parse query", name+" must be an integer")
	}
	return &n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("decode request", "Request body is required")
		}
		return errs.Validation("decode request", "Request body must be valid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	message := errs.Message(err)
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": status,
		"kind":   errs.KindOf(err).String(),
	})
	if videoID := mux.Vars(r)["videoId"]; videoID != "" {
		entry = entry.WithField("video_id", videoID)
	}
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	writeJSON(w, status, map[string]string{"message": message})
}
