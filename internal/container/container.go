package container

import (
	"fmt"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/luwas/internal/cache"
	"github.com/joshua-takyi/luwas/internal/config"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/insights"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/middleware"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/notify"
	"github.com/joshua-takyi/luwas/internal/services"
	"github.com/joshua-takyi/luwas/internal/storage"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	Mongo          *models.MongodbRepo

	Auth           *middleware.Authenticator
	UserService    *services.UserService
	CatalogService *services.CatalogService
	BookingService *services.BookingService
	HistoryService *services.HistoryService
	ChatService    *services.ChatService
}

// Deps are the connected clients built in main. Cloudinary and Redis may be nil.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Supabase   *supabase.Client
	MongoDB    *mongo.Client
	Cloudinary *cloudinary.Cloudinary
	Redis      *cache.Redis
	Verifier   helpers.TokenVerifier
	Notifier   notify.Notifier
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, deps Deps) (*Container, error) {
	logger := deps.Logger

	blobs, err := newBlobStore(cfg, deps)
	if err != nil {
		return nil, err
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	// Initialize repositories
	supa := models.SupabaseNewRepo(deps.Supabase)
	mongo := models.MongodbNewRepo(deps.MongoDB, cfg.MongoDBDatabase)

	enricher := insights.New(insights.Config{
		BaseURL:  cfg.InsightsBaseURL,
		APIKey:   cfg.OpenWeatherAPIKey,
		Timeout:  cfg.InsightsTimeout,
		CacheTTL: cfg.InsightsCacheTTL,
	}, logger, deps.Redis)

	userService := services.NewUserService(supa, mongo, blobs, logger)
	catalogService := services.NewCatalogService(mongo, mongo, enricher, deps.Metrics, logger)
	bookingService := services.NewBookingService(mongo, mongo, blobs, notifier, deps.Metrics, logger, services.BookingOptions{
		CompensateOnFailure: cfg.ProofCompensateOnFailure,
	})
	historyService := services.NewHistoryService(mongo, deps.Metrics, logger)
	chatService := services.NewChatService(mongo, notifier, deps.Metrics, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        deps.Metrics,
		SupabaseClient: deps.Supabase,
		MongoDBClient:  deps.MongoDB,
		Mongo:          mongo,
		Auth:           middleware.NewAuthenticator(deps.Verifier, userService, cfg.IsProduction(), logger),
		UserService:    userService,
		CatalogService: catalogService,
		BookingService: bookingService,
		HistoryService: historyService,
		ChatService:    chatService,
	}, nil
}

func newBlobStore(cfg *config.Config, deps Deps) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case "supabase":
		if deps.Supabase == nil || deps.Supabase.Storage == nil {
			return nil, fmt.Errorf("supabase blob backend selected but no storage client")
		}
		return storage.NewSupabaseStore(deps.Supabase.Storage, cfg.SupabaseStorageBucket, deps.Logger), nil
	default:
		if deps.Cloudinary == nil {
			return nil, fmt.Errorf("cloudinary blob backend selected but no client")
		}
		return storage.NewCloudinaryStore(deps.Cloudinary, deps.Logger), nil
	}
}
