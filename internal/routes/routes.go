package routes

import (
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/config"
	"github.com/opencare/care-scheduler/internal/eligibility"
	"github.com/opencare/care-scheduler/internal/handlers"
	infraRepo "github.com/opencare/care-scheduler/internal/infra/repository"
	"github.com/opencare/care-scheduler/internal/locks"
	"github.com/opencare/care-scheduler/internal/middleware"
	"github.com/opencare/care-scheduler/internal/notify"
	"github.com/opencare/care-scheduler/internal/obs"
	ucAppointment "github.com/opencare/care-scheduler/internal/usecase/appointment"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, recorder *audit.Recorder) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	oracle := eligibility.NewGormOracle(db)

	auditStore := audit.NewGormStore(db)
	auditService := audit.NewService(auditStore, recorder)

	var exporter *audit.Exporter
	if cfg.AuditExportBucket != "" {
		client := s3.New(s3.Options{
			Region: cfg.AWSRegion,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKeyID, cfg.AWSSecretKey, "",
			),
		})
		exporter = audit.NewExporter(auditStore, client, cfg.AuditExportBucket, recorder)
	}

	var locker locks.Locker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = locks.NewRedisLocker(client, 0)
		log.Info().Str("addr", cfg.RedisAddr).Msg("resource locks backed by redis")
	} else {
		locker = locks.NewMemoryLocker()
	}

	notifier := notify.NewLogDispatcher(log.Logger)

	// ======================================================
	// USE CASES
	// ======================================================
	scheduler := ucAppointment.NewScheduler(
		appointmentRepo,
		oracle,
		locker,
		recorder,
		notifier,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)
	auditLogsHandler := handlers.NewAuditLogsHandler(auditService, exporter)

	// ======================================================
	// ROUTES
	// ======================================================
	r.GET("/metrics", obs.Handler())

	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PROTECTED API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.List)
			secured.GET("/appointments/upcoming", appointmentHandler.Upcoming)
			secured.GET("/appointments/by-provider/:id", appointmentHandler.ByProvider)
			secured.GET("/appointments/by-patient/:id", appointmentHandler.ByPatient)
			secured.GET("/appointments/:id", appointmentHandler.Get)
			secured.PATCH("/appointments/:id", appointmentHandler.Update)
			secured.DELETE("/appointments/:id", appointmentHandler.Delete)
			secured.POST("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.POST("/appointments/:id/complete", appointmentHandler.Complete)
			secured.POST("/appointments/:id/mark-no-show", appointmentHandler.MarkNoShow)
			secured.POST("/appointments/:id/check-conflicts", appointmentHandler.CheckConflicts)

			// ------------------------------
			// AUDIT (admin-gated in the service)
			// ------------------------------
			secured.GET("/audit-logs", auditLogsHandler.List)
			secured.POST("/audit-logs/export", auditLogsHandler.Export)
		}
	}
}
