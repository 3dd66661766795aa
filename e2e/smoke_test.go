//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSmoke builds the bot binary, points its USGS base URL at a throwaway
// HTTP container and verifies the ops surface comes up. Requires Docker and a
// real DISCORD_TOKEN in the environment; run with: go test -tags e2e ./e2e
func TestSmoke(t *testing.T) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		t.Skip("DISCORD_TOKEN not set; skipping gateway smoke test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Any HTTP responder will do; the smoke test only needs a resolvable USGS
	// base URL, not real daily values.
	httpPort := nat.Port("80/tcp")
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "kennethreitz/httpbin",
			ExposedPorts: []string{string(httpPort)},
			WaitingFor:   wait.ForListeningPort(httpPort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, httpPort)
	require.NoError(t, err)
	usgsBaseURL := fmt.Sprintf("http://%s/anything", net.JoinHostPort(host, mappedPort.Port()))

	workDir := t.TempDir()
	binPath := filepath.Join(workDir, "discord-cfs")

	build := exec.Command("go", "build", "-o", binPath, "../cmd/bot")
	out, err := build.CombinedOutput()
	require.NoError(t, err, "build failed: %s", out)

	httpAddr := "127.0.0.1:18080"
	cmd := exec.Command(binPath)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"DISCORD_TOKEN="+token,
		"HTTP_ADDR="+httpAddr,
		"USGS_BASE_URL="+usgsBaseURL,
		"SQLITE_PATH="+filepath.Join(workDir, "smoke.db"),
		"CHART_DIR="+filepath.Join(workDir, "charts"),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpAddr + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 30*time.Second, 500*time.Millisecond, "/healthz never became ready")

	resp, err := http.Get("http://" + httpAddr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "discord_cfs_"),
		"metrics endpoint should expose the bot's namespace")
}
