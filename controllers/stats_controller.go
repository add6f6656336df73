// controllers/stats_controller.go
package controllers

import (
	"net/http"

	"proteinid/services"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	Svc *services.StatsService
}

func NewStatsController(svc *services.StatsService) *StatsController {
	return &StatsController{Svc: svc}
}

// GET /stats/dashboard
func (h *StatsController) Dashboard(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Svc.Dashboard(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /stats/history?year=2024&month=3
func (h *StatsController) History(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c, h.Svc.Now().In(h.Svc.Location))
	if !ok {
		return
	}
	out, err := h.Svc.History(c.Request.Context(), uid, year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /stats/day?date=2024-03-15
func (h *StatsController) Day(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Svc.Day(c.Request.Context(), uid, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
