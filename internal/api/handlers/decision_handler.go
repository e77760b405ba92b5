// internal/api/handlers/decision_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optistock/replenish/internal/domain"
	"github.com/optistock/replenish/internal/service"
)

type DecisionHandler struct {
	service *service.DecisionService
}

func NewDecisionHandler(service *service.DecisionService) *DecisionHandler {
	return &DecisionHandler{service: service}
}

type runRequest struct {
	Date string `json:"date"`
}

// RunBatch triggers the daily decision run. An empty or missing date means
// today (UTC).
func (h *DecisionHandler) RunBatch(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	runDate := time.Now().UTC().Truncate(24 * time.Hour)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		runDate = parsed
	}

	batch, err := h.service.Run(c.Request.Context(), runDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// GetBatch returns a previously computed batch by run date.
func (h *DecisionHandler) GetBatch(c *gin.Context) {
	runDate, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	batch, found, err := h.service.GetBatch(c.Request.Context(), runDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no batch for that date"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// GetRunDates lists the run dates that have an archived batch.
func (h *DecisionHandler) GetRunDates(c *gin.Context) {
	dates, err := h.service.RunDates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"dates": formatted})
}

// GetForecast computes a one-off forecast for a single product.
func (h *DecisionHandler) GetForecast(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product code is required"})
		return
	}

	asOf := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	forecast, err := h.service.Forecast(c.Request.Context(), code, asOf)
	if err != nil {
		status := http.StatusInternalServerError
		switch domain.SkipKind(err) {
		case domain.SkipInsufficientData, domain.SkipInvalidSeries:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, forecast)
}
