package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/container"
	"github.com/joshua-takyi/luwas/internal/handlers"
	"github.com/joshua-takyi/luwas/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.RefreshTokenHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", middleware.AccessTokenHeader},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	if container.Metrics != nil {
		r.Use(middleware.Metrics(container.Metrics))
	}
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := container.Auth

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "luwas-api",
			})
		})

		authRoutes := v1.Group("/auth")
		authRoutes.POST("/register", handlers.Register(container.UserService, secure))
		authRoutes.POST("/login", handlers.Login(container.UserService, secure))
		authRoutes.POST("/logout", handlers.Logout(secure))
		authRoutes.POST("/refresh", handlers.Refresh(container.UserService, secure))
		authRoutes.POST("/password-reset", handlers.RequestPasswordReset(container.UserService))
		authRoutes.GET("/oauth/:provider", handlers.SocialAuthorize(container.UserService, secure))
		authRoutes.GET("/oauth/:provider/callback", handlers.SocialCallback(container.UserService, secure))
	}

	// guests are welcome on the catalog, booking and chat screens
	public := v1.Group("/")
	public.Use(auth.OptionalAuth())
	{
		public.GET("/home", handlers.Home(container.CatalogService))
		public.GET("/weather", handlers.CurrentWeather(container.CatalogService))
		public.GET("/destinations", handlers.ListDestinations(container.CatalogService, cfg.CatalogDefaultLimit))
		public.GET("/itineraries", handlers.ListItineraries(container.CatalogService, cfg.CatalogDefaultLimit))
		public.GET("/promos", handlers.ListPromos(container.CatalogService, cfg.CatalogDefaultLimit))
		public.GET("/catalog/:kind/:id", handlers.GetDetail(container.CatalogService))
		public.GET("/me/display-name", handlers.GetDisplayName(container.UserService))

		bookingRoutes := public.Group("/bookings/:kind")
		bookingRoutes.POST("", handlers.CreateBooking(container.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(container.BookingService))
		bookingRoutes.POST("/:id/proof", handlers.UploadProof(container.BookingService))
		bookingRoutes.GET("/:id/receipt", handlers.GetReceipt(container.BookingService))

		chatRoutes := public.Group("/chat")
		chatRoutes.POST("/open", handlers.OpenConversation(container.ChatService))
		chatRoutes.GET("/:id/messages", handlers.ListMessages(container.ChatService))
		chatRoutes.POST("/:id/messages", handlers.SendMessage(container.ChatService))
		chatRoutes.GET("/:id/stream", handlers.StreamMessages(container.ChatService))
	}

	protected := v1.Group("/")
	protected.Use(auth.RequireAuth())
	{
		protected.GET("/me", handlers.GetProfile(container.UserService))
		protected.PATCH("/me", handlers.UpdateProfile(container.UserService))
		protected.POST("/me/avatar", handlers.UploadAvatar(container.UserService))
		protected.GET("/me/stream", handlers.StreamProfile(container.UserService))

		protected.GET("/history", handlers.GetHistory(container.HistoryService))
		protected.GET("/history/stream", handlers.StreamHistory(container.HistoryService))
	}

	return r
}
