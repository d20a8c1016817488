package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/http/api"
	"github.com/ubnetdef/injectengine/internal/http/api/injects/packets"
	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

type OverviewController struct {
	resolver   *schedule.Resolver
	blueGroups []int
}

// Module mounts the staff overview of what the blue teams currently see.
func Module(resolver *schedule.Resolver, blueGroup int) api.Module {
	ctl := &OverviewController{resolver: resolver, blueGroups: []int{blueGroup}}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/overview", ctl.overview)
	})
}

// GET /api/staff/overview
func (o *OverviewController) overview(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	active, err := o.resolver.ActiveInjects(ctx.Request.Context(), o.blueGroups)
	if err != nil {
		log.Error().Err(err).Ints("groups", o.blueGroups).Msg("ActiveInjects failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load injects"}
	}

	expired, err := o.resolver.RecentExpired(ctx.Request.Context(), o.blueGroups, schedule.DefaultRecentWindow)
	if err != nil {
		log.Error().Err(err).Ints("groups", o.blueGroups).Msg("RecentExpired failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load expired injects"}
	}

	return packets.OverviewResponse{
		CompetitionStart: o.resolver.CompetitionStart(),
		Active:           active,
		RecentlyExpired:  expired,
	}, nil
}
