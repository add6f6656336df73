package controllers

import (
	"net/http"

	"proteinid/services"

	"github.com/gin-gonic/gin"
)

// LogController serves the food log. Every write answers with the
// reloaded day so the client never re-fetches.
type LogController struct {
	Svc *services.LogService
}

func NewLogController(svc *services.LogService) *LogController {
	return &LogController{Svc: svc}
}

// GET /logs?date=YYYY-MM-DD
func (h *LogController) ListDay(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	day, err := h.Svc.ListDay(c.Request.Context(), uid, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// POST /logs
func (h *LogController) AddFood(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.LogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := h.Svc.AddFood(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, day)
}

// PUT /logs/:id
func (h *LogController) UpdateEntry(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.LogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := h.Svc.UpdateEntry(c.Request.Context(), uid, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// DELETE /logs/:id
func (h *LogController) DeleteEntry(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	day, err := h.Svc.DeleteEntry(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}
