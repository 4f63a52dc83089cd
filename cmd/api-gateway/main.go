package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/akademika/obe-api/api/swagger"
	"github.com/akademika/obe-api/internal/handler"
	"github.com/akademika/obe-api/internal/middleware"
	"github.com/akademika/obe-api/internal/repository"
	"github.com/akademika/obe-api/internal/service"
	"github.com/akademika/obe-api/pkg/cache"
	"github.com/akademika/obe-api/pkg/config"
	"github.com/akademika/obe-api/pkg/database"
	"github.com/akademika/obe-api/pkg/jobs"
	"github.com/akademika/obe-api/pkg/logger"
	corsmiddleware "github.com/akademika/obe-api/pkg/middleware/cors"
	reqidmiddleware "github.com/akademika/obe-api/pkg/middleware/requestid"
	"github.com/akademika/obe-api/pkg/storage"
)

// @title OBE Prodi API
// @version 0.1.0
// @description Outcome-based education attainment reporting for a study program
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, program report caching disabled", "error", err)
		redisClient = nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	termRepo := repository.NewTermRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attainmentRepo := repository.NewAttainmentRepository(db)
	jobRepo := repository.NewReportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	termSvc := service.NewTermService(termRepo, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, logr)
	classSvc := service.NewClassService(classRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	studentReportSvc := service.NewStudentReportService(attainmentRepo, curriculumRepo, metricsSvc, nil, logr)
	programReportSvc := service.NewProgramReportService(attainmentRepo, curriculumRepo, cacheRepo, metricsSvc, logr, service.ProgramReportConfig{
		Target:   cfg.Reports.AttainmentTarget,
		CacheTTL: cfg.Reports.ProgramCacheTTL,
	})

	exportSvc := service.NewExportService(programReportSvc, studentReportSvc, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)

	worker := service.NewReportWorker(jobRepo, exportSvc, logr)
	queue := jobs.NewQueue("report-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})

	jobSvc := service.NewReportJobService(jobRepo, queue, exportSvc, service.ReportJobConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	}, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()
	if err := jobSvc.RecoverPendingJobs(ctx); err != nil {
		logr.Sugar().Warnw("failed to recover pending export jobs", "error", err)
	}
	jobSvc.StartCleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	termHandler := handler.NewTermHandler(termSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	reportHandler := handler.NewReportHandler(studentReportSvc, programReportSvc, jobSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/terms", termHandler.List)
		api.GET("/terms/:id", termHandler.Get)

		api.GET("/curriculum/cpl", curriculumHandler.ListCPL)
		api.GET("/curriculum/cpl/:id/ik", curriculumHandler.ListIK)
		api.GET("/curriculum/courses", curriculumHandler.ListCourses)

		api.GET("/classes", classHandler.List)
		api.GET("/classes/:id", classHandler.Get)
		api.GET("/classes/:id/components", classHandler.ListComponents)
		api.GET("/classes/:id/cpmk", classHandler.ListCPMK)
		api.GET("/classes/:id/enrollments", classHandler.ListEnrollments)

		api.GET("/students", studentHandler.List)
		api.GET("/students/:id", studentHandler.Get)

		api.GET("/reports/attainment/students/:studentId", reportHandler.StudentAttainment)
		api.GET("/reports/attainment/program", reportHandler.ProgramAttainment)
		api.POST("/reports/attainment/export", reportHandler.CreateExport)
		api.GET("/reports/attainment/export/:id", reportHandler.ExportStatus)
		api.GET("/reports/attainment/download/:token", reportHandler.Download)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
