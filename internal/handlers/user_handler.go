package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

func GetProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		user, err := u.GetProfile(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

// GetProfileField serves /profile/:field for photo, phone, region, commune,
// name and email.
func GetProfileField(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		field := c.Param("field")
		value, err := u.ProfileField(c.Request.Context(), claims.UserID, field)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{field: value}, ""))
	}
}

func UpdateProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		var update models.ProfileUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			badRequest(c, err)
			return
		}
		user, err := u.UpdateProfile(c.Request.Context(), claims.UserID, update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "Profile updated successfully"))
	}
}

// UploadPhoto stores the multipart "file" field as the caller's avatar.
func UploadPhoto(u *services.UserService, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUser(c)
		if !ok {
			return
		}
		if maxBytes > 0 {
			// multipart overhead on top of the file itself
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
		}
		header, err := c.FormFile("file")
		if err != nil {
			respondError(c, helpers.Validation("file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			respondError(c, helpers.Internal(err))
			return
		}
		defer file.Close()

		url, err := u.UploadAvatar(c.Request.Context(), claims.UserID, header.Filename,
			header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"avatar_url": url}, "Photo updated successfully"))
	}
}

func GetPublicProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := u.PublicProfile(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, ""))
	}
}
