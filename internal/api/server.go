// Package api exposes the assessment pipeline over REST. Handlers map
// structured assessment errors onto HTTP statuses and never leak internal
// error chains to clients.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/cache"
	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/feedback"
	"github.com/endorisk-server/internal/middleware"
	"github.com/endorisk-server/internal/service"
)

// maxBatchSize bounds a single batch assessment request.
const maxBatchSize = 50

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	assessments   *service.AssessmentService
	feedback      feedback.Store
	cache         *cache.AssessmentCache
	modelVersion  string
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// ServerOptions carries the optional collaborators. A nil Feedback store
// disables the feedback endpoints; a nil Cache disables response caching.
type ServerOptions struct {
	Feedback feedback.Store
	Cache    *cache.AssessmentCache
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, assessments *service.AssessmentService, modelVersion string, logger *logrus.Logger, opts *ServerOptions) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if logger == nil {
		logger = logrus.New()
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	server := &Server{
		configManager: configManager,
		assessments:   assessments,
		modelVersion:  modelVersion,
		logger:        logger,
		router:        router,
	}
	if opts != nil {
		server.feedback = opts.Feedback
		server.cache = opts.Cache
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	cfg := s.configManager.GetServerConfig()
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	v1 := s.router.Group("/api/v1")
	v1.Use(limiter.Middleware())
	{
		v1.POST("/assess", s.handleAssess)
		v1.POST("/assess/batch", s.handleAssessBatch)
		v1.POST("/classify", s.handleClassify)
		v1.POST("/explain", s.handleExplain)
		v1.GET("/assessment/:id", s.handleGetAssessment)
		v1.POST("/feedback", s.handleSaveFeedback)
		v1.GET("/feedback", s.handleListFeedback)
		v1.GET("/feedback/:assessment_id", s.handleGetFeedback)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":        "healthy",
		"timestamp":     time.Now().UTC(),
		"model_version": s.modelVersion,
	}

	if s.cache != nil {
		if err := s.cache.Ping(c.Request.Context()); err != nil {
			health["cache"] = "unreachable"
		} else {
			health["cache"] = "ok"
		}
	}

	c.JSON(http.StatusOK, health)
}

// handleAssess runs the full assessment pipeline for one panel.
func (s *Server) handleAssess(c *gin.Context) {
	var panel domain.BiomarkerPanel
	if err := c.ShouldBindJSON(&panel); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"request body is not a valid biomarker panel").WithCause(err))
		return
	}

	requestID := c.GetString("request_id")

	// Cached results are keyed on the normalized panel and model version.
	panel.Normalize()
	if s.cache != nil {
		if cached, err := s.cache.Get(c.Request.Context(), &panel, s.modelVersion); err == nil && cached != nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := s.assessments.Assess(c.Request.Context(), &panel, requestID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(c.Request.Context(), &panel, s.modelVersion, result); err != nil {
			s.logger.WithError(err).Warn("Failed to cache assessment result")
		}
	}

	c.JSON(http.StatusOK, result)
}

// batchRequest is the body of a batch assessment request.
type batchRequest struct {
	Panels []*domain.BiomarkerPanel `json:"panels" binding:"required"`
}

// handleAssessBatch assesses up to maxBatchSize panels in one request.
func (s *Server) handleAssessBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"request body is not a valid batch request").WithCause(err))
		return
	}

	if len(req.Panels) == 0 {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"batch contains no panels"))
		return
	}
	if len(req.Panels) > maxBatchSize {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			fmt.Sprintf("batch size %d exceeds maximum of %d", len(req.Panels), maxBatchSize)))
		return
	}

	items := s.assessments.AssessBatch(c.Request.Context(), req.Panels, c.GetString("request_id"))

	succeeded := 0
	for _, item := range items {
		if item.Result != nil {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
		"results":   items,
	})
}

// handleClassify returns the molecular classification without running the
// risk model.
func (s *Server) handleClassify(c *gin.Context) {
	var panel domain.BiomarkerPanel
	if err := c.ShouldBindJSON(&panel); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"request body is not a valid biomarker panel").WithCause(err))
		return
	}

	classification, err := s.assessments.Classify(&panel)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, classification)
}

// handleExplain returns the per-feature explanation for one panel.
func (s *Server) handleExplain(c *gin.Context) {
	var panel domain.BiomarkerPanel
	if err := c.ShouldBindJSON(&panel); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"request body is not a valid biomarker panel").WithCause(err))
		return
	}

	explanation, err := s.assessments.Explain(c.Request.Context(), &panel)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// handleGetAssessment retrieves a persisted assessment by ID.
func (s *Server) handleGetAssessment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"assessment ID must be a valid UUID").WithCause(err))
		return
	}

	record, err := s.assessments.GetAssessment(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleSaveFeedback stores clinician feedback for an assessment.
func (s *Server) handleSaveFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"feedback storage is not configured"))
		return
	}

	var fb feedback.Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"request body is not valid feedback").WithCause(err))
		return
	}

	if fb.AssessmentID == "" {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"assessment_id is required"))
		return
	}
	if !validFeedbackCategory(fb.SuggestedCategory) || !validFeedbackCategory(fb.ClinicianCategory) {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeInvalidPanel,
			"risk categories must be one of LOW, INTERMEDIATE, HIGH"))
		return
	}

	if err := s.feedback.Save(c.Request.Context(), &fb); err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"failed to save feedback").WithCause(err))
		return
	}

	c.JSON(http.StatusCreated, fb)
}

// handleListFeedback lists stored feedback with pagination.
func (s *Server) handleListFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"feedback storage is not configured"))
		return
	}

	limit := parseQueryInt(c, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := parseQueryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := s.feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"failed to list feedback").WithCause(err))
		return
	}

	total, err := s.feedback.Count(c.Request.Context())
	if err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"failed to count feedback").WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"feedback": entries,
	})
}

// handleGetFeedback retrieves feedback for one assessment.
func (s *Server) handleGetFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"feedback storage is not configured"))
		return
	}

	fb, err := s.feedback.Get(c.Request.Context(), c.Param("assessment_id"))
	if err != nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"failed to load feedback").WithCause(err))
		return
	}
	if fb == nil {
		s.writeError(c, domain.NewAssessmentError(domain.ErrCodeAssessmentNotFound,
			"no feedback recorded for this assessment"))
		return
	}

	c.JSON(http.StatusOK, fb)
}

// writeError maps an error onto an HTTP status and a structured JSON body.
func (s *Server) writeError(c *gin.Context, err error) {
	var ae *domain.AssessmentError
	if !errors.As(err, &ae) {
		if errors.Is(err, context.DeadlineExceeded) {
			ae = domain.NewAssessmentError(domain.ErrCodeInferenceTimeout, "assessment timed out")
		} else {
			ae = domain.NewAssessmentError(domain.ErrCodeInternalError, "internal error").WithCause(err)
		}
	}
	if ae.RequestID == "" {
		ae.RequestID = c.GetString("request_id")
	}

	status := statusForCode(ae.Code)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"code":       ae.Code,
			"request_id": ae.RequestID,
			"path":       c.FullPath(),
		}).Error("Request failed")
	}

	c.JSON(status, gin.H{"error": ae})
}

// statusForCode maps stable error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case domain.ErrCodeInvalidPanel:
		return http.StatusBadRequest
	case domain.ErrCodeAssessmentNotFound:
		return http.StatusNotFound
	case domain.ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	case domain.ErrCodeInferenceTimeout:
		return http.StatusGatewayTimeout
	case domain.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case domain.ErrCodeAmbiguousClassification:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// validFeedbackCategory reports whether a feedback risk category is one of
// the three supported values.
func validFeedbackCategory(cat feedback.RiskCategory) bool {
	switch cat {
	case feedback.CategoryLow, feedback.CategoryIntermediate, feedback.CategoryHigh:
		return true
	}
	return false
}

// parseQueryInt parses an integer query parameter with a fallback.
func parseQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
