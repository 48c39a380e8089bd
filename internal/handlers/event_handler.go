package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

func ListGroups(g *services.GroupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := g.ListGroups(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(groups, len(groups)))
	}
}

func CreateGroup(g *services.GroupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var group models.Group
		if err := c.ShouldBindJSON(&group); err != nil {
			badRequest(c, err)
			return
		}
		created, err := g.CreateGroup(c.Request.Context(), &group)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Group created successfully"))
	}
}

func GroupEvents(g *services.GroupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		events, err := g.GroupEvents(c.Request.Context(), groupID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func CreateEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var event models.Event
		if err := c.ShouldBindJSON(&event); err != nil {
			badRequest(c, err)
			return
		}
		created, err := e.CreateEvent(c.Request.Context(), claims.UserID, &event)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Event created successfully"))
	}
}

func GetEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		event, err := e.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func JoinEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		eventID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		if err := e.JoinEvent(c.Request.Context(), eventID, claims.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Joined event successfully"))
	}
}

func LeaveEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		eventID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		if err := e.LeaveEvent(c.Request.Context(), eventID, claims.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Left event successfully"))
	}
}

func MyEvents(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		events, err := e.MyEvents(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func EventParticipants(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := int64Param(c, "id")
		if !ok {
			return
		}
		participants, err := e.Participants(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(participants, len(participants)))
	}
}
