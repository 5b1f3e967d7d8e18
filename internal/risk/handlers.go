package risk

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/bantai/bantai/internal/common/errors"
)

// Handler exposes the risk service over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler for the risk API.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With(zap.String("component", "risk_handler")),
	}
}

// RegisterRoutes mounts the risk API under the given group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	risk := api.Group("/risk")
	{
		risk.POST("/verdicts", h.createVerdict)
		risk.GET("/verdicts", h.listVerdicts)
		risk.GET("/verdicts/search", h.searchVerdicts)
		risk.GET("/verdicts/:id", h.getVerdict)
		risk.POST("/verdicts/:id/review", h.reviewVerdict)

		risk.GET("/metrics", h.dashboard)
		risk.GET("/metrics/accuracy", h.accuracy)
		risk.GET("/metrics/false-positives", h.falsePositives)
		risk.GET("/metrics/reasons", h.reasons)

		risk.GET("/users", h.listUsers)
		risk.GET("/users/:id/stats", h.userStats)

		risk.GET("/threat-ips", h.listThreatIPs)
		risk.POST("/threat-ips", h.addThreatIP)
		risk.DELETE("/threat-ips/:ip", h.removeThreatIP)
	}
}

type createVerdictRequest struct {
	UserID          string  `json:"user_id" binding:"required"`
	Country         string  `json:"country" binding:"required"`
	City            string  `json:"city"`
	HoursSinceLast  float64 `json:"hours_since_last"`
	DistanceKm      float64 `json:"distance_km"`
	DeviceType      string  `json:"device_type" binding:"required"`
	LatencyMs       float64 `json:"latency_ms"`
	IPAddress       string  `json:"ip_address"`
	IsAttackIP      bool    `json:"is_attack_ip"`
	LoginSuccessful *bool   `json:"login_successful" binding:"required"`
}

func (h *Handler) createVerdict(c *gin.Context) {
	var req createVerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	record, err := h.service.CreateVerdict(c.Request.Context(), LoginAttempt{
		UserID:          req.UserID,
		Country:         req.Country,
		City:            req.City,
		HoursSinceLast:  req.HoursSinceLast,
		DistanceKm:      req.DistanceKm,
		DeviceType:      req.DeviceType,
		LatencyMs:       req.LatencyMs,
		IPAddress:       req.IPAddress,
		IsAttackIP:      req.IsAttackIP,
		LoginSuccessful: *req.LoginSuccessful,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) listVerdicts(c *gin.Context) {
	filter := VerdictFilter{
		UserID:         c.Query("user_id"),
		Classification: Classification(c.Query("classification")),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.HandleError(c, apperrors.BadRequest("from must be RFC 3339"))
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.HandleError(c, apperrors.BadRequest("to must be RFC 3339"))
			return
		}
		filter.To = &t
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			apperrors.HandleError(c, apperrors.BadRequest("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	records, err := h.service.ListVerdicts(c.Request.Context(), filter)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if records == nil {
		records = []*VerdictRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"verdicts": records,
		"count":    len(records),
	})
}

func (h *Handler) searchVerdicts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			apperrors.HandleError(c, apperrors.BadRequest("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	result, err := h.service.SearchVerdicts(
		c.Query("q"), c.Query("user_id"), Classification(c.Query("classification")), limit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getVerdict(c *gin.Context) {
	record, err := h.service.GetVerdict(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type reviewVerdictRequest struct {
	AdminAction string `json:"admin_action" binding:"required"`
	Reviewer    string `json:"reviewer" binding:"required"`
}

func (h *Handler) reviewVerdict(c *gin.Context) {
	var req reviewVerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	record, err := h.service.ReviewVerdict(c.Request.Context(), c.Param("id"), req.AdminAction, req.Reviewer)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) dashboard(c *gin.Context) {
	m, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) accuracy(c *gin.Context) {
	accuracy, err := h.service.DetectionAccuracy(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detection_accuracy": accuracy})
}

func (h *Handler) falsePositives(c *gin.Context) {
	windowDays := 7
	if raw := c.Query("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			apperrors.HandleError(c, apperrors.BadRequest("window_days must be a positive integer"))
			return
		}
		windowDays = parsed
	}

	count, err := h.service.FalsePositiveCount(c.Request.Context(), windowDays)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"false_positives": count,
		"window_days":     windowDays,
	})
}

func (h *Handler) reasons(c *gin.Context) {
	r, err := h.service.Reasons(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) userStats(c *gin.Context) {
	stats, err := h.service.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type threatIPRequest struct {
	IP string `json:"ip" binding:"required"`
}

func (h *Handler) listThreatIPs(c *gin.Context) {
	ips, err := h.service.ListThreatIPs(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if ips == nil {
		ips = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"ips":   ips,
		"count": len(ips),
	})
}

func (h *Handler) addThreatIP(c *gin.Context) {
	var req threatIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if err := h.service.AddThreatIP(c.Request.Context(), reviewerFromRequest(c), req.IP); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ip": req.IP})
}

func (h *Handler) removeThreatIP(c *gin.Context) {
	if err := h.service.RemoveThreatIP(c.Request.Context(), reviewerFromRequest(c), c.Param("ip")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewerFromRequest(c *gin.Context) string {
	if actor := c.GetHeader("X-Admin-User"); actor != "" {
		return actor
	}
	return "unknown"
}
