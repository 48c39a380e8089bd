package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

// respondError writes err in the standard envelope. Internal details stay in
// the logs: the error is attached to the context for the ErrorHandler.
func respondError(c *gin.Context, err error) {
	kind := helpers.KindOf(err)
	if kind == helpers.KindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), models.ErrorResponse(string(kind), helpers.ReasonOf(err)))
}

func badRequest(c *gin.Context, err error) {
	respondError(c, helpers.Validation("invalid request payload: %v", err))
}

func badPayload(reason string) error {
	return helpers.Validation("%s", reason)
}

// currentUser fetches the caller and answers 401 when the route was wired
// without authentication.
func currentUser(c *gin.Context) (*helpers.UserClaims, bool) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		respondError(c, helpers.Unauthenticated("authentication required"))
		return nil, false
	}
	return user, true
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, helpers.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}
