package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"proteinid/middlewares"
	"proteinid/services"
	"proteinid/utils"

	"github.com/gin-gonic/gin"
)

// requireUser aborts with 401 when the auth middleware did not run.
func requireUser(c *gin.Context) (string, bool) {
	uid := middlewares.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return uid, true
}

// respondError maps service errors to a status. Unexpected errors are
// attached to the context for the request logger and answered generically.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, utils.ErrInvalidImage),
		errors.Is(err, services.ErrUnknownPlatform),
		errors.Is(err, services.ErrInvalidResetToken):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNoLabels):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRecognitionDisabled),
		errors.Is(err, services.ErrUploadsDisabled),
		errors.Is(err, services.ErrPushDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// yearMonth reads ?year=&month=, defaulting to the current month in now.
func yearMonth(c *gin.Context, now time.Time) (int, time.Month, bool) {
	year, month := now.Year(), now.Month()
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, 0, false
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}
