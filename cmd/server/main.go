package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"astrowheel/internal/advisor"
	"astrowheel/internal/astro"
	"astrowheel/internal/bot"
	"astrowheel/internal/cache"
	"astrowheel/internal/chart"
	"astrowheel/internal/config"
	"astrowheel/internal/db"
	"astrowheel/internal/ephemeris"
	"astrowheel/internal/geocoder"
	"astrowheel/internal/handler"
	"astrowheel/internal/job"
	"astrowheel/internal/report"
	"astrowheel/internal/repository"
	"astrowheel/internal/service"
	"astrowheel/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "astrowheel/docs"
)

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	newChartImageRepoFunc = repository.NewChartImageRepository
	newGeocoderFunc       = geocoder.NewClient
	newEngineFunc         = func() *astro.Engine { return astro.NewEngine(ephemeris.NewAnalytic(), nil) }
	newRendererFunc       = chart.NewRenderer
	newForecastSvcFunc    = service.NewForecastService
	newInterpreterFunc    = report.NewInterpreter
	newAdvisorFunc        = advisor.New
	newCleanupJobFunc     = job.NewChartImageMaintenance
	startCleanupJobFunc   = func(j *job.ChartImageMaintenance, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc  = func(token string, forecasts bot.ForecastProvider, reports bot.ReportBuilder, adv bot.PromptAdvisor) {
		bot.StartTelegramBot(token, forecasts, reports, adv)
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Astrowheel API
// @version         1.0
// @description     Lunar Return forecast service with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var imageRepo service.ChartImageRepository
	if db.Pool != nil {
		repo := newChartImageRepoFunc(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		imageRepo = repo
	}

	geo := newGeocoderFunc(
		tracer,
		cfg.NominatimBaseURL,
		cfg.NominatimUserAgent,
		cache.Client,
		time.Duration(cfg.GeocodeCacheTTLDays)*24*time.Hour,
	)
	engine := newEngineFunc()
	renderer := newRendererFunc()
	forecastService := newForecastSvcFunc(tracer, geo, engine, renderer, imageRepo).
		WithTimeout(time.Duration(cfg.ForecastTimeoutSecs) * time.Second).
		WithImageTTL(time.Duration(cfg.ChartImageTTLHours) * time.Hour)

	// Purge expired wheel images in the background (stopped by ctx cancel)
	cleanupJob := newCleanupJobFunc(tracer, forecastService).
		WithTick(time.Duration(cfg.CleanupPollSecs) * time.Second)
	startCleanupJobFunc(cleanupJob, ctx)

	interpreter, err := newInterpreterFunc()
	if err != nil {
		log.Fatalf("failed to load interpretation dataset: %v", err)
	}
	adv := newAdvisorFunc(tracer, cfg.OpenAIAPIKey, cfg.OpenAIModel, "")

	startTelegramBotFunc(cfg.TelegramBotToken, forecastService, interpreter, adv)

	h := newHandlerFunc(tracer, forecastService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("astrowheel"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
