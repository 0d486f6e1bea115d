package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erario/internal/middleware"
)

// ProfileHandler handles requests about the authenticated actor.
type ProfileHandler struct{}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// ProfileResponse represents the actor data in the response
type ProfileResponse struct {
	ActorID string   `json:"actor_id"`
	Name    string   `json:"name,omitempty"`
	Roles   []string `json:"roles"`
}

// GetProfile returns the actor the bearer token was issued to.
// @Summary     Get actor profile
// @Description Get the actor ID, name and roles carried by the bearer token
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ProfileResponse "Actor profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile := ProfileResponse{ActorID: actorID, Roles: []string{}}
	if claims, ok := c.Get(middleware.ClaimsKey); ok {
		if jc, ok := claims.(*middleware.JWTClaims); ok {
			profile.Name = jc.Name
			if jc.Roles != nil {
				profile.Roles = jc.Roles
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
