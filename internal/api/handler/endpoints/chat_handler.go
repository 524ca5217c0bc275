package endpoints

import (
	"context"
	"errors"
	"intelliquery/internal/api/handler/request"
	"intelliquery/internal/api/handler/response"
	"intelliquery/internal/api/models"
	"intelliquery/internal/api/service"
	"intelliquery/pkg"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const welcomeMessage = "Welcome to PropertyTaxBot API!"

type chatAnswerer interface {
	HandleChat(ctx context.Context, query string) (models.ChatResult, error)
	Columns(ctx context.Context) ([]string, error)
	CorrectSQL(sqlQuery string) string
}

type healthChecker interface {
	Check(ctx context.Context) response.TestConnectionResult
}

type chatHandler struct {
	logger zerolog.Logger
	chat   chatAnswerer
	audit  *service.AuditService
	health healthChecker
}

func newChatHandler(logger zerolog.Logger, chat chatAnswerer, audit *service.AuditService, health healthChecker) *chatHandler {
	return &chatHandler{
		logger: logger,
		chat:   chat,
		audit:  audit,
		health: health,
	}
}

func ChatHandler(router gin.IRouter, logger zerolog.Logger, chat chatAnswerer, audit *service.AuditService, health healthChecker) {
	h := newChatHandler(logger, chat, audit, health)

	router.GET("/", h.welcome)
	router.GET("/health", h.healthCheck)
	router.POST("/chat/", h.handleChat)

	routes := router.Group("/api/v1")
	{
		routes.POST("/chat", h.handleChat)
		routes.GET("/schema/columns", h.columns)
		routes.POST("/sql/correct", h.correctSQL)
		routes.GET("/audit", h.recentAudit)
	}
}

func (slf *chatHandler) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, response.WelcomeResponse{Message: welcomeMessage})
}

func (slf *chatHandler) healthCheck(c *gin.Context) {
	result := slf.health.Check(c.Request.Context())
	if !result.Success {
		slf.requestLogger(c).Error().Str("reason", result.Message).Msg("Database health check failed")
		c.JSON(http.StatusServiceUnavailable, response.HealthResponse{Status: "degraded", Database: result})
		return
	}
	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok", Database: result})
}

func (slf *chatHandler) handleChat(c *gin.Context) {
	var req request.ChatRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.requestLogger(c).Error().Err(err).Msg("Failed to parse chat request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.chat.HandleChat(c.Request.Context(), req.Query)
	if err != nil {
		slf.requestLogger(c).Error().Err(err).Msg("Failed to answer query")
		c.JSON(statusFor(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.ChatResponse{Response: result.Response})
}

func (slf *chatHandler) columns(c *gin.Context) {
	columns, err := slf.chat.Columns(c.Request.Context())
	if err != nil {
		slf.requestLogger(c).Error().Err(err).Msg("Failed to introspect view")
		c.JSON(statusFor(err), response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.ColumnsResponse{Columns: columns})
}

func (slf *chatHandler) correctSQL(c *gin.Context) {
	var req request.CorrectSQLRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.requestLogger(c).Error().Err(err).Msg("Failed to parse correction request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.CorrectSQLResponse{SQL: slf.chat.CorrectSQL(req.SQL)})
}

func (slf *chatHandler) recentAudit(c *gin.Context) {
	if !slf.audit.Enabled() {
		c.JSON(http.StatusNotFound, response.APIError{Message: "audit trail is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "limit must be between 1 and 1000"})
		return
	}

	entries, err := slf.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		slf.requestLogger(c).Error().Err(err).Msg("Failed to read audit trail")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// requestLogger prefers the logger RequestContext attached, so lines carry the request id.
func (slf *chatHandler) requestLogger(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &slf.logger
}

func statusFor(err error) int {
	if errors.Is(err, pkg.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
