package helpers

import "github.com/gin-gonic/gin"

// ContextUserKey is the gin context key the auth middleware stores claims under.
const ContextUserKey = "user"

// UserClaims is the authenticated caller attached to each request.
type UserClaims struct {
	UserID    string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CurrentUser returns the claims set by the auth middleware.
func CurrentUser(c *gin.Context) (*UserClaims, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*UserClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}
