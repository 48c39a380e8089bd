package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

func SendFriendRequest(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			RecipientID string `json:"recipient_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		request, err := f.SendRequest(c.Request.Context(), claims.UserID, req.RecipientID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(request, "Friend request sent"))
	}
}

func ReceivedRequests(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		requests, err := f.Received(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(requests, len(requests)))
	}
}

func SentRequests(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		requests, err := f.Sent(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(requests, len(requests)))
	}
}

func RespondFriendRequest(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		requestID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		var req struct {
			Accept *bool `json:"accept"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
			respondError(c, badPayload("accept is required"))
			return
		}
		if err := f.Respond(c.Request.Context(), requestID, claims.UserID, *req.Accept); err != nil {
			respondError(c, err)
			return
		}
		msg := "Friend request rejected"
		if *req.Accept {
			msg = "Friend request accepted"
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, msg))
	}
}

// AcceptFriendFrom accepts the pending request sent by :userId.
func AcceptFriendFrom(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		if err := f.AcceptFrom(c.Request.Context(), claims.UserID, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Friend request accepted"))
	}
}

func CancelFriendRequest(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		if err := f.Cancel(c.Request.Context(), claims.UserID, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Friend request cancelled"))
	}
}

func ListFriends(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		friends, err := f.Friends(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(friends, len(friends)))
	}
}

func RemoveFriend(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		if err := f.Remove(c.Request.Context(), claims.UserID, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Friend removed"))
	}
}

func FriendStatus(f *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		status, err := f.Status(c.Request.Context(), claims.UserID, c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"status": status}, ""))
	}
}
