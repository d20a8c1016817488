package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/http/api"
	"github.com/ubnetdef/injectengine/internal/http/api/injects/packets"
	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

type InjectController struct {
	resolver  *schedule.Resolver
	blueGroup int
	// members of these groups may pass show_expired
	previewGroups map[int]struct{}
}

func NewInjectController(resolver *schedule.Resolver, blueGroup int, previewGroups ...int) *InjectController {
	allowed := make(map[int]struct{}, len(previewGroups))
	for _, id := range previewGroups {
		allowed[id] = struct{}{}
	}
	return &InjectController{resolver: resolver, blueGroup: blueGroup, previewGroups: allowed}
}

// Module mounts the inject routes every logged-in user can reach. Members of
// previewGroups look up single injects through the blue team's schedules as
// well as their own, and only they can see unreleased ones with show_expired.
func Module(resolver *schedule.Resolver, blueGroup int, previewGroups ...int) api.Module {
	ctl := NewInjectController(resolver, blueGroup, previewGroups...)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/injects", ctl.listInjects)
		c.GET("/injects/:id", ctl.getInject)
	})
}

// GET /api/injects
func (i *InjectController) listInjects(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	views, err := i.resolver.ActiveInjects(ctx.Request.Context(), user.Groups())
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("ActiveInjects failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load injects"}
	}
	return packets.InjectListResponse{
		CompetitionStart: i.resolver.CompetitionStart(),
		Injects:          views,
	}, nil
}

// GET /api/injects/:id?show_expired=1
func (i *InjectController) getInject(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	groups := user.Groups()
	showExpired := false
	if i.canPreview(user) {
		groups = append(groups, i.blueGroup)
		showExpired = queryBool(ctx, "show_expired", false)
	}

	view, ok, err := i.resolver.Inject(ctx.Request.Context(), id, groups, showExpired)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Int("user_id", user.ID).Msg("Inject failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load inject"}
	}
	if !ok {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "inject not found"}
	}

	return packets.InjectResponse{
		Inject:             view,
		AcceptsSubmissions: !view.IsExpired() && view.Inject.Type.AcceptsSubmissions(),
	}, nil
}

func (i *InjectController) canPreview(user *model.User) bool {
	_, ok := i.previewGroups[user.GroupID]
	return ok
}

// queryBool reads "1"/"true"-style query flags, falling back to def.
func queryBool(ctx *gin.Context, key string, def bool) bool {
	raw, ok := ctx.GetQuery(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
