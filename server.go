package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"bitbucket.org/gigdash/earnings_backend/config"
	"bitbucket.org/gigdash/earnings_backend/models"
	"bitbucket.org/gigdash/earnings_backend/reports"
	"bitbucket.org/gigdash/earnings_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("earnings-backend")

// The service is built after DB/Redis connect; until then app endpoints
// return 503 via the readiness gate.
var svc atomic.Pointer[reports.Service]

// reportQuery is the shared query-parameter shape of the report routes.
// Dates are ISO days; the affiliation value is validated against the fixed
// set of organization filters.
type reportQuery struct {
	Affiliation string `form:"affiliation" binding:"omitempty,affiliation"`
	StartDate   string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	DateFilter  string `form:"date_filter"`
}

func bindReportQuery(c *gin.Context) (reports.QueryParams, bool) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return reports.QueryParams{}, false
	}
	return reports.QueryParams{
		DateFilter:  q.DateFilter,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		Affiliation: q.Affiliation,
	}, true
}

func withService(fn func(s *reports.Service, c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := svc.Load()
		if s == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		fn(s, c)
	}
}

// respondError maps core errors to HTTP statuses: an invalid affiliation is
// the caller's mistake and fails clearly with 400; everything else (store
// failures) is a 500. Cache failures never reach this point.
func respondError(c *gin.Context, funcName string, err error) {
	if errors.Is(err, utils.ErrorInvalidAffiliation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	config.LogError(config.GetLogger(), "server.go", funcName, "report computation", nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func rideshareDataHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	if params.DateFilter == "" && params.StartDate == "" {
		params.DateFilter = "3m"
	}
	rows, err := s.RideshareData(c.Request.Context(), params)
	if err != nil {
		respondError(c, "rideshareDataHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rideshare_data": rows})
}

func deliveryDataHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	if params.DateFilter == "" && params.StartDate == "" {
		params.DateFilter = "3m"
	}
	rows, err := s.DeliveryData(c.Request.Context(), params)
	if err != nil {
		respondError(c, "deliveryDataHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_data": rows})
}

func signUpsHandler(activityType models.ActivityType) gin.HandlerFunc {
	return withService(func(s *reports.Service, c *gin.Context) {
		params, ok := bindReportQuery(c)
		if !ok {
			return
		}
		result, err := s.SignUps(c.Request.Context(), activityType, params)
		if err != nil {
			respondError(c, "signUpsHandler", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func averageTipsHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	result, err := s.AverageTips(c.Request.Context(), params)
	if err != nil {
		respondError(c, "averageTipsHandler", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func averagePayPerMinHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	result, err := s.AveragePayPerMinute(c.Request.Context(), params)
	if err != nil {
		respondError(c, "averagePayPerMinHandler", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func payBreakdownHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	if params.DateFilter == "" && params.StartDate == "" {
		params.DateFilter = "7d"
	}
	groups, err := s.PayBreakdown(c.Request.Context(), params)
	if err != nil {
		respondError(c, "payBreakdownHandler", err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func monthlyPayHandler(s *reports.Service, c *gin.Context) {
	result, err := s.MonthlyPay(c.Request.Context())
	if err != nil {
		respondError(c, "monthlyPayHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthly_average_pay": result})
}

func averageTripDurationHandler(s *reports.Service, c *gin.Context) {
	avg, err := s.AverageTripDuration(c.Request.Context())
	if err != nil {
		respondError(c, "averageTripDurationHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average_trip_duration": utils.Round(avg, 2)})
}

func affiliationsHandler(s *reports.Service, c *gin.Context) {
	entries, err := s.Affiliations(c.Request.Context())
	if err != nil {
		respondError(c, "affiliationsHandler", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func exportHandler(s *reports.Service, c *gin.Context) {
	params, ok := bindReportQuery(c)
	if !ok {
		return
	}
	if params.DateFilter == "" && params.StartDate == "" {
		params.DateFilter = "3m"
	}
	f, err := s.Export(c.Request.Context(), params)
	if err != nil {
		respondError(c, "exportHandler", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="earnings-export.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "server.go", "exportHandler", "write workbook", nil, err)
	}
}

// Ops tooling: drop every cache entry. Reports recompute on the next request.
func cacheFlushHandler(c *gin.Context) {
	if err := config.ClearRedis(c.Request.Context()); err != nil {
		config.LogError(config.GetLogger(), "server.go", "cacheFlushHandler", "flush", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache flush failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination: handle SIGTERM for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("affiliation", func(fl validator.FieldLevel) bool {
			return reports.ValidAffiliationFilter(fl.Field().String())
		})
	}

	// Start the HTTP server ASAP; until DB/Redis are ready app endpoints
	// return 503.
	r := gin.New()

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})

	// One span per request; the otelgorm plugin hangs its query spans off it.
	r.Use(func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.URL.Path)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// Readiness gate.
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if svc.Load() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS.
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")

	r.Use(cors.New(corsConfig))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/rideshare-data", withService(rideshareDataHandler))
	r.GET("/delivery-data", withService(deliveryDataHandler))
	r.GET("/rideshare-sign-ups", signUpsHandler(models.ActivityTypeRideshare))
	r.GET("/delivery-sign-ups", signUpsHandler(models.ActivityTypeDelivery))
	r.GET("/average-tips-per-delivery", withService(averageTipsHandler))
	r.GET("/average-pay-per-min", withService(averagePayPerMinHandler))
	r.GET("/pay-breakdown", withService(payBreakdownHandler))
	r.GET("/monthly-pay", withService(monthlyPayHandler))
	r.GET("/average-trip-duration", withService(averageTripDurationHandler))
	r.GET("/affiliations", withService(affiliationsHandler))
	r.GET("/export", withService(exportHandler))
	// Ops tooling: flush report caches after a backfill or schema fix.
	r.POST("/internal/ops/cache/flush", cacheFlushHandler)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// The activity tables are owned by the ingestion pipeline in production;
	// AutoMigrate is for dev databases seeded from scratch.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	svc.Store(reports.NewService(
		reports.NewGormStore(db),
		reports.NewRedisCache(config.GetRedisDB()),
		logger,
	))

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("earnings backend listening on port ", port)

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{"correlation_id": cid}).Error(c.Errors.String())
		}
	}
}
