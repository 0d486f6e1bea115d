package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"erario/internal/config"
	"erario/internal/middleware"
	"erario/internal/testutil"
)

func TestProfileHandler_GetProfile(t *testing.T) {
	cfg := &config.Config{JWTSecret: "profile-secret", JWTIssuer: "municipal-idp"}
	r := gin.New()
	r.GET("/profile", middleware.AuthMiddleware(cfg), NewProfileHandler().GetProfile)

	t.Run("returns claims of the bearer token", func(t *testing.T) {
		claims := &middleware.JWTClaims{
			Name:  "Treasury clerk",
			Roles: []string{"treasury"},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   testActorID,
				Issuer:    cfg.JWTIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		rec := doRequestWithHeader(r, "GET", "/profile", "", "Authorization", "Bearer "+token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if id := field(t, body, "profile", "actor_id"); id != testActorID {
			t.Errorf("expected actor_id %s, got %v", testActorID, id)
		}
		if name := field(t, body, "profile", "name"); name != "Treasury clerk" {
			t.Errorf("expected name, got %v", name)
		}
		roles := field(t, body, "profile", "roles").([]interface{})
		if len(roles) != 1 || roles[0] != "treasury" {
			t.Errorf("expected roles [treasury], got %v", roles)
		}
	})

	t.Run("token without name or roles", func(t *testing.T) {
		token := testutil.AccessToken(t, cfg.JWTSecret, cfg.JWTIssuer, testActorID, time.Minute)

		rec := doRequestWithHeader(r, "GET", "/profile", "", "Authorization", "Bearer "+token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if roles := field(t, parseJSON(t, rec), "profile", "roles").([]interface{}); len(roles) != 0 {
			t.Errorf("expected empty roles, got %v", roles)
		}
	})

	t.Run("returns 401 without token", func(t *testing.T) {
		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})
}
