package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/pkg/auth"
	"github.com/psyscribe/psyscribe/pkg/metrics"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Config     *config.Config
	JWTManager *auth.JWTManager
	Collector  *metrics.Collector
	Log        *zap.Logger

	Auth     *AuthHandler
	Patients *PatientHandler
	Notes    *NoteHandler
	Settings *SettingsHandler
	Health   *HealthHandler
}

// NewRouter builds the full HTTP surface.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Collector))
	r.Use(CORS(deps.Config.CORS))
	r.Use(RateLimit(deps.Config.RateLimit))

	// Operational endpoints sit outside the versioned API.
	r.GET("/healthz", deps.Health.Live)
	r.GET("/readyz", deps.Health.Ready)
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(AuthRateLimit(deps.Config.RateLimit))
	{
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(Authenticate(deps.JWTManager))
	{
		protected.POST("/auth/change-password", deps.Auth.ChangePassword)

		patients := protected.Group("/patients")
		{
			patients.POST("", deps.Patients.Create)
			patients.GET("", deps.Patients.List)
			patients.GET("/:id", deps.Patients.Get)
			patients.PATCH("/:id", deps.Patients.Update)
			patients.POST("/:id/discharge", deps.Patients.Discharge)
			patients.POST("/:id/deactivate", deps.Patients.Deactivate)

			// Destroying a patient record is an administrative action.
			patients.DELETE("/:id", RequireRole(domain.RoleAdmin), deps.Patients.Delete)

			patients.GET("/:id/checklist", deps.Patients.Checklist)
			patients.POST("/:id/checklist/:item/reset", deps.Patients.ResetChecklistItem)

			patients.POST("/:id/transcribe", deps.Notes.Transcribe)
		}

		notes := protected.Group("/notes")
		{
			notes.POST("", deps.Notes.Create)
			notes.GET("", deps.Notes.List)
			notes.GET("/:id", deps.Notes.Get)
			notes.PATCH("/:id", deps.Notes.UpdateDraft)
			notes.DELETE("/:id", deps.Notes.Delete)

			notes.POST("/:id/generate", deps.Notes.Generate)
			notes.POST("/:id/finalize", deps.Notes.Finalize)
			notes.POST("/:id/analyze", deps.Notes.Analyze)
			notes.POST("/:id/addenda", deps.Notes.AddAddendum)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("", deps.Settings.Get)
			settings.PUT("", deps.Settings.Update)
		}
	}

	return r
}
