package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/services"
)

// GoogleLogin exchanges a Google ID token for a session cookie.
func GoogleLogin(a *services.AuthService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDToken string `json:"id_token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		res, err := a.LoginWithGoogle(c.Request.Context(), req.IDToken)
		if err != nil {
			respondError(c, err)
			return
		}

		setSessionCookie(c, res.Token, int(a.SessionTTL().Seconds()), secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(res, "Signed in successfully"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		setSessionCookie(c, "", -1, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	if secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(auth.SessionCookie, value, maxAge, "/", "", secure, true)
}
