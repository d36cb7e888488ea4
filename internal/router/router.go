package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/harunekki-api/docs"
	"github.com/FACorreiaa/harunekki-api/internal/api/diary"
	"github.com/FACorreiaa/harunekki-api/internal/api/itinerary"
	"github.com/FACorreiaa/harunekki-api/internal/api/likes"
	"github.com/FACorreiaa/harunekki-api/internal/api/places"
	"github.com/FACorreiaa/harunekki-api/internal/api/recommend"
	"github.com/FACorreiaa/harunekki-api/internal/api/seasonal"
	"github.com/FACorreiaa/harunekki-api/internal/api/tour"
	"github.com/FACorreiaa/harunekki-api/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	CORSOrigins            []string
	AuthenticateMiddleware func(http.Handler) http.Handler
	// LLMRateLimit guards the routes that call the language model. Optional.
	LLMRateLimit func(http.Handler) http.Handler

	TourHandler      *tour.HandlerImpl
	PlacesHandler    *places.HandlerImpl
	SeasonalHandler  *seasonal.HandlerImpl
	LikesHandler     *likes.HandlerImpl
	RecommendHandler *recommend.HandlerImpl
	ItineraryHandler *itinerary.HandlerImpl
	DiaryHandler     *diary.HandlerImpl
	UserHandler      *user.HandlerImpl
}

func passthrough(next http.Handler) http.Handler { return next }

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	llmLimit := cfg.LLMRateLimit
	if llmLimit == nil {
		llmLimit = passthrough
	}

	r.Route("/api/v1", func(r chi.Router) {

		// --- Public Routes ---
		r.Group(func(r chi.Router) {
			r.Get("/tour/areas", cfg.TourHandler.ListAreas)
			r.Get("/tour/places", cfg.TourHandler.ListPlaces)
			r.Get("/tour/places/{contentID}", cfg.TourHandler.GetPlace)
			r.Get("/restaurants/hot", cfg.TourHandler.HotRestaurants)

			r.Get("/foods/seasonal", cfg.SeasonalHandler.ListSeasonalFoods)
			r.Get("/foods/seasonal/{foodID}", cfg.SeasonalHandler.GetSeasonalFood)

			r.Get("/places/search", cfg.PlacesHandler.SearchPlaces)
			r.Get("/likes/counts", cfg.LikesHandler.LikeCounts)

			r.With(llmLimit).Post("/enhance/food", cfg.RecommendHandler.EnhanceFood)
			r.With(llmLimit).Post("/enhance/restaurant", cfg.RecommendHandler.EnhanceRestaurant)
		})

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.With(llmLimit).Post("/recommend", cfg.RecommendHandler.Recommend)

			r.Get("/likes", cfg.LikesHandler.ListLiked)
			r.Get("/likes/{kind}/{id}", cfg.LikesHandler.GetLike)
			r.Post("/likes/{kind}/{id}/toggle", cfg.LikesHandler.ToggleLike)

			r.Post("/trips/plan", cfg.ItineraryHandler.PlanTrip)
			r.Post("/trips/move", cfg.ItineraryHandler.MoveDraftPlace)

			r.Route("/diaries", func(r chi.Router) {
				r.Post("/", cfg.DiaryHandler.CreateDiary)
				r.Get("/", cfg.DiaryHandler.ListDiaries)
				r.Get("/{diaryID}", cfg.DiaryHandler.GetDiary)
				r.Delete("/{diaryID}", cfg.DiaryHandler.DeleteDiary)
				r.Put("/{diaryID}/cover", cfg.DiaryHandler.SetCover)
				r.Post("/{diaryID}/move", cfg.DiaryHandler.MovePlace)
				r.Post("/places/{placeID}/stamp", cfg.DiaryHandler.RecordStamp)
			})

			r.Get("/me", cfg.UserHandler.GetUserProfile)
			r.Put("/me", cfg.UserHandler.UpdateUserProfile)
			r.Delete("/me", cfg.UserHandler.DeleteAccount)
			r.Get("/me/badges", cfg.DiaryHandler.ListBadges)
		})
	})

	return r
}
