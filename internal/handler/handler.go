package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Onyx-Veritas/alumoutreach-backend-sub003/docs"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/dto"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/service"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// TenantHeader names the header the auth layer uses to hand over the tenant
// identifier. Auth itself is an external capability.
const TenantHeader = "X-Tenant-ID"

type Handler struct {
	eventService     service.EventServicer
	analyticsService service.AnalyticsServicer
	router           *gin.Engine
	log              *zap.Logger
}

func NewHandler(eventService service.EventServicer, analyticsService service.AnalyticsServicer, log *zap.Logger) *Handler {
	h := &Handler{
		eventService:     eventService,
		analyticsService: analyticsService,
		router:           gin.Default(),
		log:              log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.publishEvent)
	h.router.POST("/events/bulk", h.publishEventsBulk)

	analytics := h.router.Group("/analytics")
	analytics.GET("/overview", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Overview(c.Request.Context(), tenantID, tr)
	}))
	analytics.GET("/messages", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Messages(c.Request.Context(), tenantID, tr)
	}))
	analytics.GET("/campaigns", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Campaigns(c.Request.Context(), tenantID, tr)
	}))
	analytics.GET("/workflows", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Workflows(c.Request.Context(), tenantID, tr)
	}))
	analytics.GET("/sequences", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Sequences(c.Request.Context(), tenantID, tr)
	}))
	analytics.GET("/templates", h.view(func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Templates(c.Request.Context(), tenantID, tr)
	}))
	// Traffic dashboards are always hourly regardless of the caller's request.
	analytics.GET("/traffic", h.viewForced(timerange.GranularityHour, func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{} {
		return h.analyticsService.Traffic(c.Request.Context(), tenantID, tr)
	}))

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// publishEvent handles POST /events
// @Summary Publish a source domain event
// @Description Publish a source domain event to the bus, fire-and-forget
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.PublishEventRequest true "Event data"
// @Success 202 {object} dto.PublishEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /events [post]
func (h *Handler) publishEvent(c *gin.Context) {
	var req dto.PublishEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := h.eventService.Publish(c.Request.Context(), &req); err != nil {
		h.log.Warn("Rejected event",
			zap.String("event_type", req.EventType),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.PublishEventResponse{
		Status: "accepted",
	})
}

// publishEventsBulk handles POST /events/bulk
// @Summary Publish multiple source domain events
// @Description Publish multiple source domain events in bulk, fire-and-forget
// @Tags events
// @Accept json
// @Produce json
// @Param events body dto.PublishEventsBulkRequest true "Bulk events data"
// @Success 202 {object} dto.PublishBulkEventsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /events/bulk [post]
func (h *Handler) publishEventsBulk(c *gin.Context) {
	var bulkRequest dto.PublishEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	accepted, errors := h.eventService.PublishBulk(c.Request.Context(), bulkRequest.Events)

	h.log.Info("Bulk events processed",
		zap.Int("accepted", accepted),
		zap.Int("rejected", len(errors)),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, dto.PublishBulkEventsResponse{
		Accepted: accepted,
		Rejected: len(errors),
		Errors:   errors,
	})
}

// viewFn builds one analytics view for a resolved query window.
type viewFn func(c *gin.Context, tenantID string, tr timerange.TimeRange) interface{}

// view wraps the shared query plumbing: tenant header, window validation,
// defaults, and the uniform response envelope.
//
// @Summary Analytics views
// @Description Aggregated analytics views over the event store
// @Tags analytics
// @Produce json
// @Param X-Tenant-ID header string true "Tenant identifier"
// @Param from query string false "Window start (ISO-8601)"
// @Param to query string false "Window end (ISO-8601)"
// @Param timezone query string false "IANA timezone"
// @Param granularity query string false "hour, day, week or month"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse
// @Router /analytics/overview [get]
func (h *Handler) view(fn viewFn) gin.HandlerFunc {
	return h.viewForced("", fn)
}

// viewForced is view with a granularity override applied after resolution,
// so both the queries and the meta block reflect the forced bucket width.
func (h *Handler) viewForced(force timerange.Granularity, fn viewFn) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "missing tenant identifier",
			})
			return
		}

		var q dto.AnalyticsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}

		window := timerange.Query{
			From:        q.From,
			To:          q.To,
			Timezone:    q.Timezone,
			Granularity: q.Granularity,
		}

		if errs := timerange.Validate(window); len(errs) > 0 {
			h.log.Warn("Invalid analytics query",
				zap.String("tenant_id", tenantID),
				zap.Strings("reasons", errs))
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "invalid query",
				Details: errs,
			})
			return
		}

		tr := timerange.Resolve(window)
		if force != "" {
			tr.Granularity = force
		}
		data := fn(c, tenantID, tr)

		c.JSON(http.StatusOK, dto.Envelope{
			Success: true,
			Data:    data,
			Meta: dto.Meta{
				From:        tr.From,
				To:          tr.To,
				Timezone:    tr.Timezone,
				Granularity: string(tr.Granularity),
				GeneratedAt: time.Now().UTC(),
			},
		})
	}
}
