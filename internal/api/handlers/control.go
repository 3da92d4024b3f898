package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/catalogwatch/collector/internal/control"
)

// DiscoveryTrigger launches a discovery walk outside the schedule.
type DiscoveryTrigger interface {
	TriggerDiscovery(ctx context.Context)
}

// ControlHandler exposes the pause, resume, and stop operations. Pause
// and resume flip the manual provider; whether collection is actually
// paused also depends on the other providers (the pause file), so
// responses report the effective state.
type ControlHandler struct {
	manual  *control.ManualPause
	plane   *control.Plane
	trigger DiscoveryTrigger
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(manual *control.ManualPause, plane *control.Plane, trigger DiscoveryTrigger) *ControlHandler {
	return &ControlHandler{manual: manual, plane: plane, trigger: trigger}
}

// ControlOutput is the response for control operations.
type ControlOutput struct {
	Body struct {
		Status   string `json:"status"   example:"paused" doc:"Operation result"`
		Paused   bool   `json:"paused"                    doc:"Effective pause state"`
		Stopping bool   `json:"stopping"                  doc:"Whether shutdown has been requested"`
	}
}

func (h *ControlHandler) respond(status string) *ControlOutput {
	resp := &ControlOutput{}
	resp.Body.Status = status
	resp.Body.Paused = h.plane.IsPaused()
	resp.Body.Stopping = h.plane.ShouldStop()
	return resp
}

// Pause sets the manual pause flag. Workers finish their current item
// and then idle.
func (h *ControlHandler) Pause(_ context.Context, _ *struct{}) (*ControlOutput, error) {
	h.manual.Set(true)
	return h.respond("paused"), nil
}

// Resume clears the manual pause flag. Collection stays paused while
// any other provider still requests it.
func (h *ControlHandler) Resume(_ context.Context, _ *struct{}) (*ControlOutput, error) {
	h.manual.Set(false)
	return h.respond("resumed"), nil
}

// Stop requests a one-way shutdown of collection. The API keeps
// serving reads; restarting collection requires restarting the
// process.
func (h *ControlHandler) Stop(_ context.Context, _ *struct{}) (*ControlOutput, error) {
	h.plane.RequestStop()
	return h.respond("stopping"), nil
}

// TriggerDiscovery starts a discovery walk immediately.
func (h *ControlHandler) TriggerDiscovery(ctx context.Context, _ *struct{}) (*ControlOutput, error) {
	if h.plane.ShouldStop() {
		return nil, huma.Error409Conflict("collector is stopping")
	}
	h.trigger.TriggerDiscovery(context.WithoutCancel(ctx))
	return h.respond("discovery started"), nil
}

// RegisterControlRoutes registers control endpoints with the Huma API.
func RegisterControlRoutes(api huma.API, h *ControlHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "pause-collection",
		Method:      http.MethodPost,
		Path:        "/api/v1/control/pause",
		Summary:     "Pause collection",
		Description: "Sets the manual pause flag. Workers finish in-flight items and idle.",
		Tags:        []string{"control"},
	}, h.Pause)

	huma.Register(api, huma.Operation{
		OperationID: "resume-collection",
		Method:      http.MethodPost,
		Path:        "/api/v1/control/resume",
		Summary:     "Resume collection",
		Description: "Clears the manual pause flag. Other pause providers may keep collection paused.",
		Tags:        []string{"control"},
	}, h.Resume)

	huma.Register(api, huma.Operation{
		OperationID: "stop-collection",
		Method:      http.MethodPost,
		Path:        "/api/v1/control/stop",
		Summary:     "Stop collection",
		Description: "Requests a one-way shutdown of collection. Cannot be undone without a process restart.",
		Tags:        []string{"control"},
	}, h.Stop)

	huma.Register(api, huma.Operation{
		OperationID: "trigger-discovery",
		Method:      http.MethodPost,
		Path:        "/api/v1/discovery/run",
		Summary:     "Trigger a discovery walk",
		Description: "Starts a catalog discovery walk immediately instead of waiting for the schedule.",
		Tags:        []string{"control"},
		Errors:      []int{http.StatusConflict},
	}, h.TriggerDiscovery)
}
