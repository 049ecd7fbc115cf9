package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"puc-service/internal/config"
	"puc-service/internal/locator"
	"puc-service/internal/persist"
	"puc-service/internal/service"
)

type Handler struct {
	testService *service.TestService
	config      *config.Config
	log         zerolog.Logger
}

func NewHandler(
	testService *service.TestService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		testService: testService,
		config:      cfg,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.POST("/extract", h.extractFields)
		public.GET("/verify/:vehicle", h.verifyVehicle)
		public.GET("/tests/:submission_id", h.getCertificate)
	}

	// Operator endpoints
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/tests", h.submitTest)
		protected.GET("/reports/expiring", h.listExpiring)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

// extractFields pre-fills intake form fields from recognized document text.
// Advisory only: the response is merged into editable form state.
func (h *Handler) extractFields(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	candidates := h.testService.ExtractCandidates(req.Text)
	c.JSON(http.StatusOK, successResponse(candidates))
}

func (h *Handler) submitTest(c *gin.Context) {
	var req service.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.testService.SubmitTest(c.Request.Context(), OperatorFrom(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		if errors.Is(err, persist.ErrExhausted) && result != nil {
			// Hard failure, but the record is retained locally. Tell the
			// operator both things.
			c.JSON(http.StatusInsufficientStorage, gin.H{
				"error": "could not reach any authorized storage target; " +
					"check storage permissions for this operator",
				"retained_locally": true,
				"local_id":         result.LocalID,
			})
			return
		}
		h.log.Error().Err(err).Msg("failed to submit test record")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":        "ok",
		"submission_id": result.Record.SubmissionID,
		"location":      result.Location,
		"replayed":      result.Replayed,
		"validity_date": result.Record.ValidityDate.Format("2006-01-02"),
		"certificate_url": fmt.Sprintf("%s/%s",
			strings.TrimSuffix(h.config.Center.VerifyBaseURL, "/"),
			result.Record.VehicleNumber),
	})
}

func (h *Handler) verifyVehicle(c *gin.Context) {
	vehicle := strings.TrimSpace(c.Param("vehicle"))
	if vehicle == "" {
		c.JSON(http.StatusBadRequest, errorResponse("vehicle number is required"))
		return
	}

	status, err := h.testService.VerifyVehicle(c.Request.Context(), vehicle)
	if err != nil {
		switch {
		case errors.Is(err, locator.ErrNotFound):
			c.JSON(http.StatusNotFound, errorResponse("no records found for this vehicle number"))
		case errors.Is(err, locator.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, errorResponse("verification is temporarily unavailable, please try again later"))
		default:
			h.log.Error().Err(err).Msg("failed to verify vehicle")
			c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle_number": status.Record.VehicleNumber,
		"is_valid":       status.IsValid,
		"expires_on":     status.ExpiryDisplay,
		"test_result":    status.Record.TestResult,
		"certificate":    status.Record,
	})
}

func (h *Handler) getCertificate(c *gin.Context) {
	submissionID := strings.TrimSpace(c.Param("submission_id"))

	rec, err := h.testService.GetCertificate(c.Request.Context(), submissionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("certificate not found"))
			return
		}
		h.log.Error().Err(err).Msg("failed to load certificate")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificate": rec,
		"center_name": h.config.Center.Name,
		"verify_url": fmt.Sprintf("%s/%s",
			strings.TrimSuffix(h.config.Center.VerifyBaseURL, "/"),
			rec.VehicleNumber),
	})
}

func (h *Handler) listExpiring(c *gin.Context) {
	days := 7
	if d := c.Query("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			days = parsed
		}
	}

	recs, err := h.testService.ListExpiring(c.Request.Context(), days)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list expiring certificates")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(recs))
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
