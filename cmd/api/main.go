package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeep/internal/api"
	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/export"
	"innkeep/internal/logging"
	"innkeep/internal/metrics"
	"innkeep/internal/models"
	"innkeep/internal/repository"
	"innkeep/internal/service"
	"innkeep/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, redisCloser := initAvailabilityCache(cfg, logger)
	if redisCloser != nil {
		defer redisCloser.Close()
	}

	eventBus := events.NewEventBus()
	subscribeMetrics(eventBus)

	bookingService := service.NewBookingService(db, cache, eventBus, cfg.Booking, logger)
	roomService := service.NewRoomService(db, logger)
	reviewService := service.NewReviewService(db, logger)
	userService := service.NewUserService(db, logger)
	exporter := export.NewExporter(cfg.Exports.Path, logger)

	httpServer := api.NewServer(cfg.HTTP, cfg.Auth, bookingService, roomService, reviewService, userService, exporter, cache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startBackground(ctx, cfg, db, bookingService, logger)
	startMetrics(ctx, cfg, logger)

	return serveHTTP(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := seedHotels(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// seedHotels loads the hotel catalog from YAML on first start. An already
// populated database is left untouched so runtime edits survive restarts.
func seedHotels(db *database.DB, logger *zerolog.Logger) error {
	ctx := context.Background()

	existing, err := db.ListHotels(ctx)
	if err != nil {
		return fmt.Errorf("check existing hotels: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Int("hotels", len(existing)).Msg("database already seeded")
		return nil
	}

	hotelsPath := os.Getenv("HOTELS_PATH")
	if hotelsPath == "" {
		hotelsPath = "configs/hotels.yaml"
	}
	data, err := os.ReadFile(hotelsPath)
	if err != nil {
		logger.Warn().Err(err).Str("hotels_path", hotelsPath).Msg("no hotel seed file, starting with empty catalog")
		return nil
	}

	var seed struct {
		Hotels []models.Hotel `yaml:"hotels"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse hotel seed file: %w", err)
	}

	for i := range seed.Hotels {
		hotel := &seed.Hotels[i]
		if err := db.CreateHotel(ctx, hotel); err != nil {
			return fmt.Errorf("seed hotel %q: %w", hotel.Name, err)
		}
		for j := range hotel.Rooms {
			room := &hotel.Rooms[j]
			room.HotelID = hotel.ID
			if err := db.CreateRoom(ctx, room); err != nil {
				return fmt.Errorf("seed room %q of hotel %q: %w", room.RoomNumber, hotel.Name, err)
			}
		}
		logger.Info().Str("hotel", hotel.Name).Int("rooms", len(hotel.Rooms)).Msg("seeded hotel")
	}
	return nil
}

// initAvailabilityCache prefers Redis with an in-memory fallback. Without a
// configured Redis address the in-memory cache serves alone.
func initAvailabilityCache(cfg *config.Config, logger *zerolog.Logger) (domain.AvailabilityCache, io.Closer) {
	ttl := time.Duration(models.DefaultCacheTTL) * time.Second
	memory := repository.NewMemoryAvailabilityCache(ttl)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory availability cache")
		return memory, nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory availability cache")
		client.Close()
		return memory, nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	primary := repository.NewRedisAvailabilityCache(client, ttl)
	return repository.NewFailoverAvailabilityCache(primary, memory, logger), client
}

func subscribeMetrics(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCheckedIn,
		events.EventBookingCheckedOut,
		events.EventBookingCancelled,
		events.EventBookingNoShow,
		events.EventPaymentRecorded,
	} {
		eventType := eventType
		bus.Subscribe(eventType, func(*events.Event) error {
			metrics.IncBookingEvent(eventType)
			return nil
		})
	}
}

func startBackground(ctx context.Context, cfg *config.Config, db *database.DB, bookings *service.BookingService, logger *zerolog.Logger) {
	interval := time.Hour
	if d, err := time.ParseDuration(cfg.Booking.SweepInterval); err == nil && d > 0 {
		interval = d
	}
	sweeper := worker.NewNoShowSweeper(bookings, interval, worker.RetryPolicy{}, logger)
	go sweeper.Run(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backup.Start(ctx)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serveHTTP(ctx context.Context, server *api.Server, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
