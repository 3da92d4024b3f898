package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogwatch/collector/internal/api/handlers"
	"github.com/catalogwatch/collector/internal/control"
)

type mockTrigger struct {
	calls int
}

func (m *mockTrigger) TriggerDiscovery(_ context.Context) {
	m.calls++
}

func newControlAPI(t *testing.T) (humatest.TestAPI, *control.ManualPause, *control.Plane, *mockTrigger) {
	t.Helper()

	manual := control.NewManualPause()
	plane := control.NewPlane(manual)
	trigger := &mockTrigger{}

	_, api := humatest.New(t)
	handlers.RegisterControlRoutes(api, handlers.NewControlHandler(manual, plane, trigger))
	return api, manual, plane, trigger
}

func TestControl_PauseResume(t *testing.T) {
	t.Parallel()

	api, manual, plane, _ := newControlAPI(t)

	resp := api.Post("/api/v1/control/pause")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"paused"`)
	assert.Contains(t, resp.Body.String(), `"paused":true`)
	assert.True(t, manual.Paused())
	assert.True(t, plane.IsPaused())

	resp = api.Post("/api/v1/control/resume")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"paused":false`)
	assert.False(t, plane.IsPaused())
}

func TestControl_ResumeDoesNotOverrideOtherProviders(t *testing.T) {
	t.Parallel()

	manual := control.NewManualPause()
	stuck := control.NewManualPause()
	stuck.Set(true)
	plane := control.NewPlane(manual, stuck)

	_, api := humatest.New(t)
	handlers.RegisterControlRoutes(api, handlers.NewControlHandler(manual, plane, &mockTrigger{}))

	resp := api.Post("/api/v1/control/resume")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"paused":true`,
		"effective state reflects the other provider")
}

func TestControl_Stop(t *testing.T) {
	t.Parallel()

	api, _, plane, _ := newControlAPI(t)

	resp := api.Post("/api/v1/control/stop")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"stopping":true`)
	assert.True(t, plane.ShouldStop())

	// Stop is one-way; a second request is a no-op.
	resp = api.Post("/api/v1/control/stop")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, plane.ShouldStop())
}

func TestControl_TriggerDiscovery(t *testing.T) {
	t.Parallel()

	api, _, plane, trigger := newControlAPI(t)

	resp := api.Post("/api/v1/discovery/run")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, trigger.calls)

	plane.RequestStop()
	resp = api.Post("/api/v1/discovery/run")
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, 1, trigger.calls)
}
