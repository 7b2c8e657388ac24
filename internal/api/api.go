// Package api serves a read-only HTTP view of stored matches and stats.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	DefaultMatchLimit = 20
	MaxMatchLimit     = 100

	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestId"
)

// Store is the read side of the store used by the API.
type Store interface {
	GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error)
	TopMatches(ctx context.Context, profileID int64, limit int, minScore float64) ([]jobs.JobMatch, error)
	Stats(ctx context.Context) (jobs.Stats, error)
}

// ErrorBody is the error object of every non-2xx response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type MatchesResponse struct {
	ProfileID int64           `json:"profile_id"`
	Count     int             `json:"count"`
	Matches   []jobs.JobMatch `json:"matches"`
}

type Handler struct {
	store            Store
	logger           *zap.Logger
	defaultProfileID int64
}

// NewHandler returns a handler. profileID is used when a request does not name one.
func NewHandler(st Store, profileID int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, logger: logger, defaultProfileID: profileID}
}

// Router builds the gin engine with all routes and middleware.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), h.recovery(), h.logging())

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.health)
	v1.GET("/stats", h.stats)
	v1.GET("/matches", h.matches)
	v1.GET("/summary", h.summary)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("reading stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", "could not read stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) matches(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	matches, ok := h.loadMatches(c, q)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, MatchesResponse{ProfileID: q.profileID, Count: len(matches), Matches: matches})
}

func (h *Handler) summary(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	matches, ok := h.loadMatches(c, q)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, matching.Summarize(matches))
}

type matchQuery struct {
	profileID int64
	limit     int
	minScore  float64
}

func (h *Handler) parseQuery(c *gin.Context) (matchQuery, bool) {
	q := matchQuery{profileID: h.defaultProfileID, limit: DefaultMatchLimit}

	if raw := c.Query("profile_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, http.StatusBadRequest, "invalid_profile_id", "profile_id must be a positive integer")
			return q, false
		}
		q.profileID = id
	}
	if q.profileID <= 0 {
		respondError(c, http.StatusBadRequest, "missing_profile_id", "profile_id is required")
		return q, false
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondError(c, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return q, false
		}
		q.limit = min(limit, MaxMatchLimit)
	}

	if raw := c.Query("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < 0 || score > 100 {
			respondError(c, http.StatusBadRequest, "invalid_min_score", "min_score must be between 0 and 100")
			return q, false
		}
		q.minScore = score
	}

	return q, true
}

func (h *Handler) loadMatches(c *gin.Context, q matchQuery) ([]jobs.JobMatch, bool) {
	ctx := c.Request.Context()

	if _, err := h.store.GetProfile(ctx, q.profileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "profile_not_found", "profile not found")
			return nil, false
		}
		h.logger.Error("reading profile", zap.Int64("profile_id", q.profileID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", "could not read profile")
		return nil, false
	}

	matches, err := h.store.TopMatches(ctx, q.profileID, q.limit, q.minScore)
	if err != nil {
		h.logger.Error("reading matches", zap.Int64("profile_id", q.profileID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", "could not read matches")
		return nil, false
	}
	if matches == nil {
		matches = []jobs.JobMatch{}
	}
	return matches, true
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic",
					zap.Any("error", rec),
					zap.String("request_id", c.GetString(requestIDKey)),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				respondError(c, http.StatusInternalServerError, "internal", "unexpected server error")
			}
		}()
		c.Next()
	}
}

func (h *Handler) logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("request complete",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
