package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/reduce-go/api/handlers"
	"github.com/yourusername/reduce-go/api/middleware"
	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/telemetry"
	"github.com/yourusername/reduce-go/pkg/logger"
	"go.uber.org/zap"
)

// Version is reported by GET /health
const Version = "1.0.0"

// Store is the repository the router serves from
type Store interface {
	domain.DownloadRepository
	Ping() error
}

// RouterDeps groups everything the HTTP layer needs
type RouterDeps struct {
	Classifier *app.Classifier
	Store      Store
	Device     domain.DeviceInfo
	Telemetry  *telemetry.Telemetry
	Journal    *logger.MultiLogger     // optional
	Stream     *handlers.DecisionStream // created when nil
	Logger     *zap.Logger
}

// SetupRouter sets up the HTTP router. Paths stay at the root so existing
// browser extension clients keep working.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger, deps.Journal))
	router.Use(middleware.Metrics(deps.Telemetry))

	healthHandler := handlers.NewHealthHandler(deps.Store, Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(deps.Telemetry.Handler()))

	stream := deps.Stream
	if stream == nil {
		stream = handlers.NewDecisionStream(deps.Logger)
	}
	router.GET("/decisions/stream", stream.HandleWebSocket)

	decisionHandler := handlers.NewDecisionHandler(deps.Classifier, stream, deps.Journal, deps.Logger)
	router.POST("/process_download", decisionHandler.ProcessDownload)
	router.POST("/delete_record", decisionHandler.DeleteRecord)

	deviceHandler := handlers.NewDeviceHandler(deps.Device)
	router.GET("/device_info", deviceHandler.DeviceInfo)

	downloadHandler := handlers.NewDownloadHandler(deps.Store, deps.Logger)
	router.GET("/get_all_downloads", downloadHandler.ListDownloads)
	router.GET("/cancelled_download_stats", downloadHandler.Stats(domain.StatusCancelled))
	router.GET("/completed_download_stats", downloadHandler.Stats(domain.StatusCompleted))

	if deps.Journal != nil {
		logHandler := handlers.NewLogHandler(deps.Journal.GetLogsDir())
		router.GET("/logs/:category", logHandler.GetLogs)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
