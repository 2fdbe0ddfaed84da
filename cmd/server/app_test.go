package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(storePath string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            config.DefaultPort,
			LogLevel:        "debug",
			ShutdownTimeout: 2 * time.Second,
		},
		Store: config.StoreConfig{Path: storePath},
	}
}

func newTestApp(t *testing.T) (*application, *logger.TestLogBuffer) {
	t.Helper()
	log, buf := logger.GetTestLogger(t)
	app, err := newApplication(testConfig(filepath.Join(t.TempDir(), "tasks.csv")), log)
	require.NoError(t, err)
	return app, buf
}

func TestNewApplicationLoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := "id,title,description,priority,completed,created_at,updated_at\n" +
		"1,Buy groceries,,3,False,2025-04-01T12:00:00Z,2025-04-01T12:00:00Z\n" +
		"2,Broken row,,9,False,2025-04-01T12:00:00Z,2025-04-01T12:00:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	log, buf := logger.GetTestLogger(t)
	app, err := newApplication(testConfig(path), log)

	require.NoError(t, err)
	report := app.taskStore.LoadReport()
	assert.Equal(t, 1, report.Loaded)
	assert.Len(t, report.Skipped, 1)

	entry := logger.FindLogEntry(t, buf, "Application initialized successfully")
	require.NotNil(t, entry)
	assert.Equal(t, float64(1), entry["tasks_loaded"])
	assert.Equal(t, float64(1), entry["rows_skipped"])
}

func TestNewApplicationUnreadableFile(t *testing.T) {
	// A directory at the store path cannot be read as a file.
	path := t.TempDir()

	log, buf := logger.GetTestLogger(t)
	app, err := newApplication(testConfig(path), log)

	require.NoError(t, err)
	assert.Error(t, app.taskStore.LoadReport().ReadErr)
	logger.AssertLogContains(t, buf, "starting with an empty task list")
}

func TestNewApplicationEmptyStorePath(t *testing.T) {
	log, _ := logger.GetTestLogger(t)

	app, err := newApplication(testConfig(""), log)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open task store")
	assert.Nil(t, app)
}

func TestServeGracefulShutdown(t *testing.T) {
	app, buf := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.serve(ctx, ln, app.setupRouter())
	}()

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, err = http.Post(baseURL+"/tasks", "application/json",
		strings.NewReader(`{"title": "Buy groceries"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	logger.AssertLogContains(t, buf, "Server shutdown completed")
	audit := logger.FindLogEntry(t, buf, "task changed")
	require.NotNil(t, audit)
	assert.Equal(t, "task.created", audit["event_type"])
	onDisk, err := os.ReadFile(app.taskStore.Path())
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "Buy groceries")
}

func TestStartHTTPServerPortInUse(t *testing.T) {
	app, _ := newTestApp(t)

	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	app.config.Server.Port = ln.Addr().(*net.TCPAddr).Port

	err = app.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
