package usersync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"ldap2moodle/core/model"
	"ldap2moodle/core/reconcile"
	"ldap2moodle/feature/syncstate"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, runner Runner, state StateReader) *fiber.App {
	t.Helper()
	app := fiber.New()
	feature := NewFeature(newTestService(runner, state))
	require.NoError(t, feature.Load(app))
	return app
}

func targetUser(id int, auth string) *model.User {
	u := model.NewUser(fmt.Sprintf("user%d", id))
	u.ID = model.Int(id)
	u.Auth = model.String(auth)
	return u
}

func TestHandleRun(t *testing.T) {
	runner := &fakeRunner{}
	app := setupTestApp(t, runner, &fakeState{})

	req := httptest.NewRequest("POST", "/sync?dry_run=true&full_sync=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get("X-Sync-Shared"))

	var report reconcile.RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.DryRun)
	assert.True(t, report.FullSync)
	assert.Equal(t, 1, report.Created)
}

func TestHandleRun_BadQuery(t *testing.T) {
	app := setupTestApp(t, &fakeRunner{}, &fakeState{})

	resp, err := app.Test(httptest.NewRequest("POST", "/sync?dry_run=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleRun_Fatal(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: failed to load target users: %w", reconcile.ErrFatal, assert.AnError)}
	app := setupTestApp(t, runner, &fakeState{})

	resp, err := app.Test(httptest.NewRequest("POST", "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "failed to load target users")
	assert.NotNil(t, body["report"])
}

func TestHandleRun_NoWait(t *testing.T) {
	runner := &fakeRunner{}
	svc := newTestService(runner, &fakeState{})
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync?wait=false", nil))
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandleStatus(t *testing.T) {
	stored := &syncstate.Status{Domain: "users", Watermark: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)}
	app := setupTestApp(t, &fakeRunner{}, &fakeState{status: stored})

	resp, err := app.Test(httptest.NewRequest("GET", "/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var status Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "users", status.Domain)
	assert.False(t, status.Running)
	assert.True(t, stored.Watermark.Equal(status.Watermark))
}

func TestHandleWatermark(t *testing.T) {
	t.Run("Never Synced", func(t *testing.T) {
		app := setupTestApp(t, &fakeRunner{}, &fakeState{})

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/watermark", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["full_sync"])
	})

	t.Run("Store Failure", func(t *testing.T) {
		app := setupTestApp(t, &fakeRunner{}, &fakeState{err: assert.AnError})

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/watermark", nil))
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestFeature(t *testing.T) {
	feature := NewFeature(NewService(context.Background(), &fakeRunner{}, &fakeState{}, testConfig(), "ldap", nil))
	assert.Equal(t, "sync", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.False(t, NewFeature(nil).IsEnabled())
}
