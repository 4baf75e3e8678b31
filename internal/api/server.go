// Package api exposes ingestion and search over HTTP
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/ingestion"
	"github.com/azure/yt-comment-analyzer/internal/search"
	"github.com/gorilla/mux"
)

// Ingester is the part of the ingestion service served over HTTP
type Ingester interface {
	Analyze(ctx context.Context, rawURL string) (*ingestion.Result, error)
	Reanalyze(ctx context.Context, videoID string) (*ingestion.Result, error)
	GetAnalysis(ctx context.Context, videoID string) (*ingestion.Result, error)
	Status(ctx context.Context, videoID string) (ingestion.Stage, error)
	GetMetrics() string
}

// Searcher answers comment searches
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Server holds the HTTP handlers and their collaborators
type Server struct {
	ingester       Ingester
	searcher       Searcher
	analyzeTimeout time.Duration
}

// NewServer creates the handler set. A non-positive analyzeTimeout leaves
// ingestion bounded only by the client connection.
func NewServer(ingester Ingester, searcher Searcher, analyzeTimeout time.Duration) *Server {
	return &Server{
		ingester:       ingester,
		searcher:       searcher,
		analyzeTimeout: analyzeTimeout,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	// Metrics endpoint
	router.HandleFunc("/metrics", s.metricsHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", s.analyzeHandler).Methods(http.MethodPost)
	api.HandleFunc("/search", s.searchHandler).Methods(http.MethodPost)
	api.HandleFunc("/video/{videoId}/analysis", s.analysisHandler).Methods(http.MethodGet)
	api.HandleFunc("/video/{videoId}/questions", s.questionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/video/{videoId}/reanalyze", s.reanalyzeHandler).Methods(http.MethodPost)
	api.HandleFunc("/video/{videoId}/status", s.statusHandler).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Route not found"})
	})

	return router
}
