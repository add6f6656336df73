package routes

import (
	"net/http"

	"proteinid/controllers"
	"proteinid/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

// Handlers are the controllers the router mounts.
type Handlers struct {
	Auth     *controllers.AuthController
	Profile  *controllers.ProfileController
	Food     *controllers.FoodController
	SearchWS *controllers.SearchWSController
	Log      *controllers.LogController
	Weight   *controllers.WeightController
	Stats    *controllers.StatsController
	Device   *controllers.DeviceController
	// Dev is optional; its routes are only mounted when set.
	Dev *controllers.DevController
}

func SetupRouter(h Handlers, jwtSecret []byte, log hclog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestLogger(log), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}

	requireAuth := middlewares.AuthMiddleware(jwtSecret)

	user := r.Group("/user", requireAuth)
	{
		user.GET("/me", h.Auth.Me)
		user.GET("/profile", h.Profile.GetProfile)
		user.PUT("/profile", h.Profile.UpdateProfile)
		user.GET("/goal", h.Profile.GetGoal)
		user.POST("/devices", h.Device.Register)
		user.POST("/notifications/toggle", h.Device.ToggleNotifications)
	}

	food := r.Group("/food", requireAuth)
	{
		food.GET("/quick", h.Food.QuickFoods)
		food.GET("/search", h.Food.SearchFoods)
		food.GET("/search/ws", h.SearchWS.Stream)
		food.GET("/:fdcId", h.Food.FoodDetails)
		food.POST("/recognize", h.Food.RecognizeFood)
	}

	logs := r.Group("/logs", requireAuth)
	{
		logs.GET("", h.Log.ListDay)
		logs.POST("", h.Log.AddFood)
		logs.PUT("/:id", h.Log.UpdateEntry)
		logs.DELETE("/:id", h.Log.DeleteEntry)
	}

	weights := r.Group("/weights", requireAuth)
	{
		weights.GET("", h.Weight.Series)
		weights.POST("", h.Weight.Record)
		weights.PUT("/:id", h.Weight.Update)
		weights.DELETE("/:id", h.Weight.Delete)
	}

	stats := r.Group("/stats", requireAuth)
	{
		stats.GET("/dashboard", h.Stats.Dashboard)
		stats.GET("/history", h.Stats.History)
		stats.GET("/day", h.Stats.Day)
	}

	if h.Dev != nil {
		dev := r.Group("/dev", requireAuth)
		dev.POST("/push-test", h.Dev.PushTest)
	}

	return r
}
