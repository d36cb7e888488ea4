package container

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/harunekki-api/app/db"
	appMiddleware "github.com/FACorreiaa/harunekki-api/app/middleware"
	"github.com/FACorreiaa/harunekki-api/config"
	"github.com/FACorreiaa/harunekki-api/internal/api/auth"
	"github.com/FACorreiaa/harunekki-api/internal/api/diary"
	"github.com/FACorreiaa/harunekki-api/internal/api/itinerary"
	"github.com/FACorreiaa/harunekki-api/internal/api/likes"
	"github.com/FACorreiaa/harunekki-api/internal/api/places"
	"github.com/FACorreiaa/harunekki-api/internal/api/recommend"
	"github.com/FACorreiaa/harunekki-api/internal/api/seasonal"
	"github.com/FACorreiaa/harunekki-api/internal/api/tour"
	"github.com/FACorreiaa/harunekki-api/internal/api/user"
	"github.com/FACorreiaa/harunekki-api/internal/router"
	"github.com/FACorreiaa/harunekki-api/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool
	LLMLimiter   *appMiddleware.RateLimiter
	RouterConfig *router.Config
}

// llmRateKey counts signed-in users by id and everyone else by address.
func llmRateKey(r *http.Request) string {
	if id, ok := auth.UserID(r.Context()); ok {
		return "user:" + id.String()
	}
	return "ip:" + appMiddleware.RemoteIP(r)
}

// NewContainer wires repositories, services and handlers on top of an open pool.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *Container {
	loc := cfg.Location()

	// repositories
	likesRepo := likes.NewRepository(pool, logger)
	tourRepo := tour.NewRepository(pool, logger)
	seasonalRepo := seasonal.NewRepository(pool, logger)
	diaryRepo := diary.NewRepository(pool, logger)
	userRepo := user.NewPostgresUserRepo(pool, logger)

	// upstream clients
	tourClient := tour.NewClient(tour.ClientConfig{
		BaseURL:     cfg.TourAPI.BaseURL,
		ServiceKey:  cfg.TourAPI.ServiceKey,
		Timeout:     cfg.TourAPI.Timeout,
		MaxAttempts: cfg.TourAPI.MaxAttempts,
		RPS:         cfg.TourAPI.RPS,
	}, logger)
	kakaoClient := places.NewClient(cfg.Kakao.BaseURL, cfg.Kakao.RestAPIKey, cfg.Kakao.Timeout, logger)
	imageStore := storage.NewClient(cfg.Storage.URL, cfg.Storage.Bucket, cfg.Storage.ServiceKey, cfg.Storage.MaxWidth, logger)

	var generator recommend.Generator = recommend.Unavailable{}
	aiClient, err := recommend.NewAIClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		logger.Warn("Language model disabled, descriptions will use fallbacks", slog.Any("error", err))
	} else {
		generator = aiClient
	}

	// services
	likesService := likes.NewServiceImpl(likesRepo, loc, logger)
	tourService := tour.NewServiceImpl(tourClient, tourRepo, likesService, cfg.TourAPI.CacheTTL, logger)
	seasonalService := seasonal.NewServiceImpl(seasonalRepo, loc, logger)
	recommendService := recommend.NewServiceImpl(generator, logger)
	itineraryService := itinerary.NewServiceImpl(loc, cfg.Trip.MaxDays, logger)
	diaryService := diary.NewServiceImpl(diaryRepo, imageStore, loc, cfg.Trip.MaxDays, logger)
	userService := user.NewUserService(userRepo, logger)

	perMinute := cfg.LLM.RequestsPerM
	if perMinute <= 0 {
		perMinute = 20
	}
	llmLimiter := appMiddleware.NewRateLimiter(logger, perMinute, 5, llmRateKey)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		LLMLimiter: llmLimiter,
		RouterConfig: &router.Config{
			CORSOrigins:            cfg.Server.CORSOrigins,
			AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT),
			LLMRateLimit:           llmLimiter.Limit,
			TourHandler:            tour.NewHandler(tourService, logger),
			PlacesHandler:          places.NewHandler(kakaoClient, logger),
			SeasonalHandler:        seasonal.NewHandler(seasonalService, logger),
			LikesHandler:           likes.NewHandler(likesService, logger),
			RecommendHandler:       recommend.NewHandler(recommendService, logger),
			ItineraryHandler:       itinerary.NewHandler(itineraryService, logger),
			DiaryHandler:           diary.NewHandler(diaryService, logger),
			UserHandler:            user.NewHandlerImpl(userService, logger),
		},
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
