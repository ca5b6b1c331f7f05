package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/procpipe/internal/api/middleware"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/procpipe/internal/service"
	"github.com/GriffinCanCode/procpipe/internal/shared/types"
	"github.com/GriffinCanCode/procpipe/internal/shared/utils"
	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

// Version is reported by the root banner
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	log      *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, metrics *monitoring.Metrics, tracer *tracing.Tracer, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		metrics:  metrics,
		tracer:   tracer,
		log:      log,
	}
}

// Root handles the banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "procpipe",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
		"uptime_seconds":   h.metrics.GetUptimeSeconds(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if categoryStr := c.Query("category"); categoryStr != "" {
		if err := utils.ValidateString(categoryStr, "category", 1, 64, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxRequestSize)

	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateJSONDepth(map[string]interface{}(req.Params), utils.MaxParamsDepth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := h.requestContext(c)
	serviceID, _, _ := strings.Cut(req.ToolID, ".")

	span, ctx := h.tracer.StartSpan(c.Request.Context(), req.ToolID)
	span.SetTag("tool_id", req.ToolID)
	defer func() {
		span.Finish()
		h.tracer.Submit(span)
	}()

	timer := monitoring.NewTimer(h.metrics, serviceID, req.ToolID)
	result, err := h.registry.Execute(ctx, req.ToolID, req.Params, appCtx)
	if err != nil {
		status := statusFor(err)
		span.SetError(err)
		span.SetStatus(status)

		// Unroutable tool IDs are client-chosen strings; keep them out of
		// metric labels.
		if routable(err) {
			timer.Stop("error")
			h.metrics.RecordServiceError(serviceID, req.ToolID, errorType(err))
		}
		if status >= http.StatusInternalServerError {
			h.log.Error("Tool execution failed",
				zap.String("tool_id", req.ToolID),
				zap.String("request_id", *appCtx.RequestID),
				zap.Error(err))
		}

		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("failure")
		errno, _ := result.Data["errno"].(string)
		if errno == "" {
			errno = "failure"
		}
		span.SetTag("errno", errno)
		h.metrics.RecordServiceError(serviceID, req.ToolID, errno)
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handlers) requestContext(c *gin.Context) *types.Context {
	rid := middleware.GetRequestID(c)
	remote := c.ClientIP()
	appCtx := &types.Context{
		RequestID:  &rid,
		RemoteAddr: &remote,
	}
	if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
		tid := string(traceID)
		appCtx.TraceID = &tid
	}
	return appCtx
}

// statusFor maps execution errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, spawn.ErrInvalidArgument), errors.Is(err, service.ErrInvalidToolID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrServiceNotFound), errors.Is(err, service.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func routable(err error) bool {
	return !errors.Is(err, service.ErrInvalidToolID) &&
		!errors.Is(err, service.ErrServiceNotFound) &&
		!errors.Is(err, service.ErrToolNotFound)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, spawn.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
