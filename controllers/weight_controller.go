package controllers

import (
	"net/http"

	"proteinid/services"

	"github.com/gin-gonic/gin"
)

type WeightController struct {
	Svc *services.WeightService
}

func NewWeightController(svc *services.WeightService) *WeightController {
	return &WeightController{Svc: svc}
}

type weightInput struct {
	Date     string  `json:"date"`
	WeightKg float64 `json:"weight_kg" binding:"required"`
}

// GET /weights?year=2024&month=3
func (h *WeightController) Series(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c, h.Svc.Now().In(h.Svc.Location))
	if !ok {
		return
	}
	out, err := h.Svc.Series(c.Request.Context(), uid, year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /weights
func (h *WeightController) Record(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in weightInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.Svc.Record(c.Request.Context(), uid, in.Date, in.WeightKg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// PUT /weights/:id
func (h *WeightController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in weightInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), uid, c.Param("id"), in.Date, in.WeightKg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /weights/:id
func (h *WeightController) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
