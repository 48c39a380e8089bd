package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sunity/api/internal/container"
	"github.com/sunity/api/internal/handlers"
	"github.com/sunity/api/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	cfg := c.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	r.GET("/health", handlers.Health(c.Repo, c.Hub))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.BlobBackend == "local" && strings.HasPrefix(cfg.PublicBaseURL, "/") {
		r.Static(cfg.PublicBaseURL, cfg.UploadDir)
	}

	secure := cfg.IsProduction()
	authed := middleware.Authenticate(c.AuthService)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/google", handlers.GoogleLogin(c.AuthService, secure))
		authRoutes.POST("/logout", handlers.Logout(secure))
	}

	r.GET("/users/:id", handlers.GetPublicProfile(c.UserService))
	r.GET("/ratings/:userId", handlers.GetRatings(c.RatingService))
	r.GET("/groups", handlers.ListGroups(c.GroupService))
	r.GET("/groups/:id/events", handlers.GroupEvents(c.GroupService))
	r.GET("/events/:id", handlers.GetEvent(c.EventService))
	r.GET("/events/:id/participants", handlers.EventParticipants(c.EventService))

	protected := r.Group("/")
	protected.Use(authed)

	profileRoutes := protected.Group("/profile")
	{
		profileRoutes.GET("", handlers.GetProfile(c.UserService))
		profileRoutes.POST("/update", handlers.UpdateProfile(c.UserService))
		profileRoutes.POST("/photo", handlers.UploadPhoto(c.UserService, cfg.MaxUploadBytes))
		profileRoutes.GET("/:field", handlers.GetProfileField(c.UserService))
	}

	protected.POST("/groups", handlers.CreateGroup(c.GroupService))
	protected.POST("/events", handlers.CreateEvent(c.EventService))
	protected.POST("/events/:id/join", handlers.JoinEvent(c.EventService))
	protected.DELETE("/events/:id/leave", handlers.LeaveEvent(c.EventService))
	protected.GET("/me/events", handlers.MyEvents(c.EventService))

	friendRoutes := protected.Group("/friends")
	{
		friendRoutes.GET("", handlers.ListFriends(c.FriendService))
		friendRoutes.POST("/requests", handlers.SendFriendRequest(c.FriendService))
		friendRoutes.GET("/requests/received", handlers.ReceivedRequests(c.FriendService))
		friendRoutes.GET("/requests/sent", handlers.SentRequests(c.FriendService))
		friendRoutes.POST("/requests/:id/respond", handlers.RespondFriendRequest(c.FriendService))
		friendRoutes.DELETE("/requests/:userId", handlers.CancelFriendRequest(c.FriendService))
		friendRoutes.POST("/accept/:userId", handlers.AcceptFriendFrom(c.FriendService))
		friendRoutes.GET("/status/:userId", handlers.FriendStatus(c.FriendService))
		friendRoutes.DELETE("/:userId", handlers.RemoveFriend(c.FriendService))
	}

	protected.POST("/ratings", handlers.CreateRating(c.RatingService))

	chatRoutes := protected.Group("/chat")
	{
		chatRoutes.POST("/send", handlers.SendDirectMessage(c.MessageService))
		chatRoutes.GET("/history/:peerId", handlers.DirectHistory(c.MessageService))
		chatRoutes.POST("/send-event", handlers.SendEventMessage(c.MessageService))
		chatRoutes.GET("/history-event/:eventId", handlers.EventHistory(c.MessageService))
		chatRoutes.GET("/ws/:peerId", handlers.DirectSocket(c.MessageService, c.Hub, c.Upgrader))
		chatRoutes.GET("/ws-event/:eventId", handlers.EventSocket(c.EventService, c.Hub, c.Upgrader))
	}

	return r
}

// corsConfig shares the chat origin allowlist. A "*" entry reflects any
// origin, since a literal wildcard cannot be combined with credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
