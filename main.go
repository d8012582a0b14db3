package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/cache"
	"flightdash/internal/collector"
	"flightdash/internal/config"
	"flightdash/internal/db"
	"flightdash/internal/events"
	"flightdash/internal/http/handlers"
	appmw "flightdash/internal/http/middleware"
	ui "flightdash/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}
	store := db.NewStore(sqlDB)

	db.StartRetentionWorker(ctx, store, cfg.RetentionDays)
	db.StartSnapshotWorker(ctx, store, cfg.DashboardDays, analytics.Snapshots)

	dashCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if dashCache != nil {
		if err := dashCache.Ping(ctx); err != nil {
			log.Printf("warning: redis at %s unreachable: %v (dashboard cache misses will fall through)", cfg.RedisAddr, err)
		} else {
			log.Printf("dashboard cache enabled at %s", cfg.RedisAddr)
		}
		defer dashCache.Close()
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if producer != nil {
		log.Printf("publishing collection events to %s", cfg.KafkaTopic)
		defer producer.Close()
	}

	collector.RegisterMetrics()
	appmw.RegisterMetrics()
	coll := collector.NewFromConfig(cfg, store, dashCache, producer)

	r := router.New()
	r.NotFound = handlers.NotFound(cfg)

	// Global middleware chain: request logger, then request metrics, then router
	handler := handlers.RequestLogger(appmw.Metrics(r.Handler))
	admin := appmw.AdminAuth(store, cfg)

	r.GET("/health", handlers.Health(store))
	r.GET("/metrics", handlers.MetricsHandler(prometheus.DefaultGatherer))
	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm(cfg))
	r.POST("/login", handlers.LoginSubmit(store, cfg))
	r.POST("/logout", handlers.Logout())

	r.GET("/", handlers.Dashboard(cfg))
	r.GET("/routes", handlers.RoutesPage(cfg))
	r.GET("/insights", handlers.InsightsPage(cfg))

	r.POST("/api/collect-data", admin(handlers.CollectData(coll)))
	r.POST("/api/admin/cleanup", admin(handlers.Cleanup(store, dashCache, cfg)))
	r.POST("/api/flights", appmw.BearerImport(cfg)(handlers.ImportFlights(store, dashCache)))

	r.GET("/api/dashboard-data", handlers.DashboardData(store, dashCache, cfg))
	r.GET("/api/route-analysis", handlers.RouteAnalysis(store, cfg))
	r.GET("/api/filter-data", handlers.FilterData(store))
	r.GET("/api/export-data", handlers.ExportData(store))
	r.GET("/api/export-report", handlers.ExportReport(store, cfg))
	r.GET("/api/insights", handlers.Insights(store, store, cfg))
	r.GET("/api/statistics", handlers.Statistics(store))
	r.GET("/api/flights/{id}", handlers.FlightDetail(store))

	srv := &fasthttp.Server{
		Handler:      handler,
		Name:         "flightdash",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("flightdash listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
