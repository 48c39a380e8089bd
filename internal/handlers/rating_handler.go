package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

func CreateRating(r *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var rating models.Rating
		if err := c.ShouldBindJSON(&rating); err != nil {
			badRequest(c, err)
			return
		}
		created, err := r.Rate(c.Request.Context(), claims.UserID, &rating)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Rating saved"))
	}
}

func GetRatings(r *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := r.Summary(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(summary, ""))
	}
}
