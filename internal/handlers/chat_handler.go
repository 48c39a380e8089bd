package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/chat"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

func SendDirectMessage(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			RecipientID string `json:"recipient_id"`
			Message     string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		msg, err := m.SendDirect(c.Request.Context(), claims.UserID, req.RecipientID, req.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, "Message sent"))
	}
}

func DirectHistory(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		history, err := m.DirectHistory(c.Request.Context(), claims.UserID, c.Param("peerId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(history, len(history)))
	}
}

func SendEventMessage(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			EventID int64  `json:"event_id"`
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.EventID <= 0 {
			respondError(c, badPayload("event_id is required"))
			return
		}
		msg, err := m.SendEvent(c.Request.Context(), claims.UserID, req.EventID, req.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, "Message sent"))
	}
}

func EventHistory(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		eventID, ok := int64Param(c, "eventId")
		if !ok {
			return
		}
		history, err := m.EventHistory(c.Request.Context(), claims.UserID, eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(history, len(history)))
	}
}

// DirectSocket upgrades to the direct chat with :peerId. Preconditions are
// checked before the upgrade so failures are ordinary HTTP errors.
func DirectSocket(m *services.MessageService, hub *chat.Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		peerID := c.Param("peerId")
		if err := m.CanChatWith(c.Request.Context(), claims.UserID, peerID); err != nil {
			respondError(c, err)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// the upgrader has already written the HTTP error
			slog.Warn("direct chat upgrade failed", "user_id", claims.UserID, "error", err)
			return
		}
		hub.Direct.Serve(c.Request.Context(), ws, claims.UserID, peerID)
	}
}

func EventSocket(e *services.EventService, hub *chat.Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		eventID, ok := int64Param(c, "eventId")
		if !ok {
			return
		}
		if err := e.RequireParticipant(c.Request.Context(), eventID, claims.UserID); err != nil {
			respondError(c, err)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("event chat upgrade failed", "user_id", claims.UserID, "event_id", eventID, "error", err)
			return
		}
		hub.Events.Serve(c.Request.Context(), ws, chat.EventKey{EventID: eventID, UserID: claims.UserID})
	}
}
