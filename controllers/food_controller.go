package controllers

import (
	"net/http"
	"strconv"

	"proteinid/services"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	Svc *services.FoodService
}

func NewFoodController(svc *services.FoodService) *FoodController {
	return &FoodController{Svc: svc}
}

// GET /food/quick
func (h *FoodController) QuickFoods(c *gin.Context) {
	foods, err := services.QuickFoods()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

// GET /food/search?q=vištiena
func (h *FoodController) SearchFoods(c *gin.Context) {
	c.JSON(http.StatusOK, h.Svc.Search(c.Request.Context(), c.Query("q")))
}

// GET /food/:fdcId
func (h *FoodController) FoodDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fdcId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid food id"})
		return
	}
	food := h.Svc.Details(c.Request.Context(), id)
	if food == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food not found"})
		return
	}
	c.JSON(http.StatusOK, food)
}

// POST /food/recognize  { "image_base64": "data:image/jpeg;base64,..." }
func (h *FoodController) RecognizeFood(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	out, err := h.Svc.Recognize(c.Request.Context(), req.ImageBase64)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
