package endpoints

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/http/api"
	"github.com/ubnetdef/injectengine/internal/http/api/admin/packets"
	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

type ScheduleController struct {
	store    db.Store
	resolver *schedule.Resolver
}

func NewScheduleController(store db.Store, resolver *schedule.Resolver) *ScheduleController {
	return &ScheduleController{store: store, resolver: resolver}
}

// Module mounts schedule administration.
func Module(store db.Store, resolver *schedule.Resolver) api.Module {
	ctl := NewScheduleController(store, resolver)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.GET("/schedules/bounds", ctl.getBounds)
		c.POST("/schedules", ctl.createSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
	})
}

// GET /api/admin/schedules?all=1
func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all := ctx.Query("all") == "1" || ctx.Query("all") == "true"

	views, err := s.resolver.AllSchedules(ctx.Request.Context(), !all)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("AllSchedules failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load schedules"}
	}
	return packets.ScheduleListResponse{
		CompetitionStart: s.resolver.CompetitionStart(),
		Schedules:        views,
	}, nil
}

// GET /api/admin/schedules/bounds?round=0
func (s *ScheduleController) getBounds(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	round := true
	if raw, ok := ctx.GetQuery("round"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid round flag"}
		}
		round = v
	}

	bounds, err := s.resolver.ScheduleBounds(ctx.Request.Context(), round)
	if err != nil {
		log.Error().Err(err).Msg("ScheduleBounds failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not compute bounds"}
	}
	return packets.BoundsResponse{ScheduleBounds: bounds, Rounded: round}, nil
}

// POST /api/admin/schedules
func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if apiErr := validateWindow(request); apiErr != nil {
		return nil, apiErr
	}

	rctx := ctx.Request.Context()
	if _, err := s.store.GetInjectByID(rctx, request.InjectID); err != nil {
		return nil, lookupError(err, "inject")
	}
	if _, err := s.store.GetGroupByID(rctx, request.GroupID); err != nil {
		return nil, lookupError(err, "group")
	}

	active := true
	if request.Active != nil {
		active = *request.Active
	}
	created, err := s.store.CreateSchedule(rctx, model.Schedule{
		InjectID: request.InjectID,
		GroupID:  request.GroupID,
		Active:   active,
		Fuzzy:    request.Fuzzy,
		Start:    request.Start,
		End:      request.End,
		Order:    request.Order,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}

	log.Info().Int("schedule_id", created.ID).Int("inject_id", created.InjectID).
		Int("group_id", created.GroupID).Int("user_id", user.ID).Msg("schedule created")
	return packets.ScheduleResponse{Schedule: created}, nil
}

// DELETE /api/admin/schedules/:id
func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.SetScheduleActive(ctx.Request.Context(), id, false); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete schedule"}
	}

	log.Info().Int("schedule_id", id).Int("user_id", user.ID).Msg("schedule deactivated")
	return gin.H{"id": id, "active": false}, nil
}

func validateWindow(r packets.CreateScheduleRequest) *api.APIError {
	if r.Start < 0 || r.End < 0 {
		return &api.APIError{Code: http.StatusBadRequest, Message: "start and end must not be negative"}
	}
	if !r.Fuzzy && r.Start == 0 {
		return &api.APIError{Code: http.StatusBadRequest, Message: "start is required for fixed schedules"}
	}
	if r.End != 0 && r.End <= r.Start {
		return &api.APIError{Code: http.StatusBadRequest, Message: "end must be after start"}
	}
	return nil
}

func lookupError(err error, what string) *api.APIError {
	if errors.Is(err, sql.ErrNoRows) {
		return &api.APIError{Code: http.StatusBadRequest, Message: "unknown " + what}
	}
	return &api.APIError{Code: http.StatusInternalServerError, Message: "could not load " + what}
}
