package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kapu/portfolio-web-go/internal/service/content"
	"github.com/kapu/portfolio-web-go/internal/service/provider"
	apperrors "github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
)

// DatasetResponse is the JSON view of one provider state.
type DatasetResponse[T any] struct {
	Data      T               `json:"data"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	Phase     provider.Phase  `json:"phase"`
	Source    provider.Source `json:"source"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func datasetResponse[T any](st provider.State[T]) DatasetResponse[T] {
	resp := DatasetResponse[T]{
		Data:    st.Value,
		Loading: st.Loading,
		Error:   st.ErrMessage(),
		Phase:   st.Phase,
		Source:  st.Source,
	}
	if !st.UpdatedAt.IsZero() {
		updated := st.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	requestID := middleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Int("status", appErr.StatusCode),
		zap.String("code", appErr.Code),
		zap.String("request_id", requestID),
	}
	for key, value := range appErr.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	s.logger.Warn("request error", fields...)
	writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Code, Message: appErr.Message, RequestID: requestID})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasetResponse(s.content.Projects().State()))
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasetResponse(s.content.Author().State()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasetResponse(s.content.Categories().State()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.content.Status())
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	changes := s.content.RefreshAll(r.Context())
	s.logger.Info("Manual refresh of all datasets", zap.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, http.StatusOK, map[string]any{"datasets": changes})
}

func (s *Server) handleRefreshDataset(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	change, ok := s.content.Refresh(r.Context(), dataset)
	if !ok {
		s.respondError(w, r, apperrors.NewAppError("unknown dataset: "+dataset, "UNKNOWN_DATASET",
			http.StatusNotFound, map[string]any{"dataset": dataset}))
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	if err := s.content.ClearAllCaches(r.Context()); err != nil {
		s.respondError(w, r, apperrors.NewAppError("failed to clear caches", "CACHE_CLEAR_FAILED",
			http.StatusInternalServerError, nil).WithCause(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": content.Datasets})
}
