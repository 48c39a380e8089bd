package container

import (
	"database/sql"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/chat"
	"github.com/sunity/api/internal/config"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
	"github.com/sunity/api/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Repo   *models.SQLRepo
	Hub    *chat.Hub

	Upgrader *websocket.Upgrader

	AuthService    *services.AuthService
	UserService    *services.UserService
	GroupService   *services.GroupService
	EventService   *services.EventService
	FriendService  *services.FriendService
	RatingService  *services.RatingService
	MessageService *services.MessageService
}

// NewContainer wires repositories, services and the chat hub around one
// database handle.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	verifier auth.IdentityVerifier,
	blobs storage.BlobStore,
) *Container {
	repo := models.NewSQLRepo(db)

	hub := chat.NewHub(repo, chat.ConnOptions{
		MaxMessageBytes: cfg.WSMaxMessageBytes,
		RateBurst:       cfg.WSRateBurst,
		RateInterval:    cfg.WSRateInterval,
	}, logger)

	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL)
	eventService := services.NewEventService(repo, repo, hub)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Repo:     repo,
		Hub:      hub,
		Upgrader: chat.NewUpgrader(cfg.AllowedOrigins, logger),

		AuthService:    services.NewAuthService(repo, verifier, sessions),
		UserService:    services.NewUserService(repo, repo, blobs, cfg.MaxUploadBytes),
		GroupService:   services.NewGroupService(repo, repo),
		EventService:   eventService,
		FriendService:  services.NewFriendService(repo, repo),
		RatingService:  services.NewRatingService(repo, repo, repo),
		MessageService: services.NewMessageService(repo, eventService, repo, hub),
	}
}
