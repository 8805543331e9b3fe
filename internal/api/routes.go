package api

import (
	"alcyxob/fitplan/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	jwtIssuer string,
	workoutService service.WorkoutService,
) {
	workoutHandler := NewWorkoutHandler(workoutService)

	authMiddleware := AuthMiddleware(jwtSecret, jwtIssuer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		workoutGroup := protected.Group("/workouts")
		{
			// POST /api/v1/workouts/generate
			workoutGroup.POST("/generate", workoutHandler.Generate)
			// POST /api/v1/workouts/adapt
			workoutGroup.POST("/adapt", workoutHandler.Adapt)
			// GET /api/v1/workouts/{id} - owner only
			workoutGroup.GET("/:id", workoutHandler.GetPlan)
		}
	}
}
