package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/convoflow/pkg/engine"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/otelhelper"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/registry"
	"github.com/dukex/convoflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutomations(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes(protocol.Dependencies{})

	valid := testutil.CreateTestAutomation(
		func(a *models.Automation) { a.ID = "welcome"; a.Name = "Welcome" },
		testutil.WithNodes(testutil.SendMessageNode("hello", "Hi!")),
	)

	broken := testutil.CreateTestAutomation(
		func(a *models.Automation) { a.ID = "broken"; a.Name = "Broken" },
		testutil.WithNodes(
			testutil.SendMessageNode("hello", "Hi!"),
			testutil.CreateTestNode("mystery", "teleport", nil),
		),
		testutil.WithEdge("hello", "missing"),
	)

	var out bytes.Buffer

	invalid := validateAutomations(&out, []*models.Automation{valid, broken}, reg)
	assert.Equal(t, 1, invalid)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "Welcome (welcome): valid", string(lines[0]))
	assert.Contains(t, string(lines[1]), "Broken (broken):")
	assert.Contains(t, out.String(), `unknown target node "missing"`)
}

func testServerConfig(t *testing.T) serverConfig {
	t.Helper()

	return serverConfig{
		DatabaseURL:   "file://" + t.TempDir(),
		WaitStore:     "database",
		EventBus:      "gochannel",
		Port:          defaultPort,
		WaitTimeout:   engine.DefaultWaitTimeout,
		SweepSchedule: "@every 1m",
		FanOut:        engine.FanOutAll,
	}
}

func TestServer_Lifecycle(t *testing.T) {
	ctx := t.Context()

	srv, err := newServer(ctx, slog.Default(), otelhelper.NoopTracer(), testServerConfig(t))
	require.NoError(t, err)

	defer srv.close(ctx)

	require.NoError(t, srv.start(ctx))

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*serverConfig)
	}{
		{name: "sweep schedule", modify: func(c *serverConfig) { c.SweepSchedule = "whenever" }},
		{name: "event bus", modify: func(c *serverConfig) { c.EventBus = "carrier-pigeon" }},
		{name: "wait store", modify: func(c *serverConfig) { c.WaitStore = "memcached://localhost" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testServerConfig(t)
			tt.modify(&config)

			_, err := newServer(t.Context(), slog.Default(), otelhelper.NoopTracer(), config)
			assert.Error(t, err)
		})
	}
}
