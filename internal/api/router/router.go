package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/farmhand/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, authn *Authenticator) *gin.Engine {
	r := gin.New()
	h := handler.New(deps)

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", h.Health)

	api := r.Group("")
	api.Use(authn.Middleware())
	{
		jobs := api.Group("/jobs")
		{
			jobs.GET("", h.ListJobs)
			jobs.POST("", h.CreateJob)
			jobs.GET("/:id", h.GetJob)
		}

		applications := api.Group("/applications")
		{
			applications.GET("", h.ListApplications)
			applications.POST("", h.SubmitApplication)
			applications.PATCH("/:id", h.UpdateApplicationStatus)
		}

		api.GET("/contracts", h.ListContracts)
	}

	return r
}
