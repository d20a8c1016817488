package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/http/api"
	"github.com/ubnetdef/injectengine/internal/http/api/auth/packets"
	"github.com/ubnetdef/injectengine/internal/http/middleware"
	"github.com/ubnetdef/injectengine/internal/model"
)

type AccountManager struct {
	jwtSecret string
	store     db.Store
}

func accountManagementController(secret string, store db.Store) *AccountManager {
	return &AccountManager{jwtSecret: secret, store: store}
}

// PublicModule mounts the routes reachable without a token.
func PublicModule(jwtSecret string, store db.Store) api.Module {
	ctl := accountManagementController(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/login", ctl.userLogin)
	})
}

// SessionModule mounts the routes that need a logged-in user.
func SessionModule(jwtSecret string, store db.Store) api.Module {
	ctl := accountManagementController(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
	})
}

// POST /api/auth/login
func (a *AccountManager) userLogin(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByUsername(ctx.Request.Context(), request.Username)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		log.Warn().Err(err).Str("username", request.Username).Msg("login failed")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.jwtSecret)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("could not generate JWT")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "Something went wrong, please try again"}
	}

	return packets.LoginResponse{Token: token}, nil
}

// GET /api/auth/current_profile
func (a *AccountManager) getCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	resp := packets.ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		GroupID:   user.GroupID,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if g, err := a.store.GetGroupByID(ctx.Request.Context(), user.GroupID); err == nil {
		resp.GroupName = g.Name
	}
	return resp, nil
}
