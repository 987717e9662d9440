package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/flyingbitac/fly-in-docker/internal/assets"
	"github.com/flyingbitac/fly-in-docker/internal/fetch"
	"github.com/flyingbitac/fly-in-docker/internal/hostinfo"
)

// Artifacts that must exist in the build context before an image build.
const (
	teraRendererURL   = "https://github.com/acados/tera_renderer/releases/download/v0.0.34/t_renderer-v0.0.34-linux"
	realsenseRulesURL = "https://github.com/IntelRealSense/librealsense/blob/master/config/99-realsense-libusb.rules"

	teraRendererName   = "t_renderer"
	realsenseRulesName = "99-realsense-libusb.rules"
)

// Build fetches the required artifacts and builds the image from the bundled
// Dockerfile. When the alternate registry is selected, the result is re-tagged
// under the default repository so existence checks agree for either registry.
func (m *Manager) Build(ctx context.Context) error {
	contextDir := filepath.Join(m.dataDir, "context")
	if err := assets.InflateContext(contextDir); err != nil {
		return err
	}
	if err := fetch.Ensure(ctx, teraRendererURL, filepath.Join(contextDir, teraRendererName)); err != nil {
		return err
	}
	if err := fetch.Ensure(ctx, realsenseRulesURL, filepath.Join(contextDir, realsenseRulesName)); err != nil {
		return err
	}

	args := []string{"build", "-t", m.image, "--network=host", "-f", filepath.Join(contextDir, "Dockerfile")}
	switch {
	case m.cfg.Env.HTTPProxy != "":
		args = append(args, "--build-arg", "PROXY_HOST="+m.cfg.Env.HTTPProxy)
		m.logger.Info("using HTTP proxy for the image build", "proxy", m.cfg.Env.HTTPProxy)
	case m.cfg.Env.HTTPSProxy != "":
		args = append(args, "--build-arg", "PROXY_HOST="+m.cfg.Env.HTTPSProxy)
		m.logger.Info("using HTTPS proxy for the image build", "proxy", m.cfg.Env.HTTPSProxy)
	default:
		m.logger.Warn("no proxy environment variables found; the build may stall or fail on restricted networks")
	}
	args = append(args, contextDir)

	if err := runCommand(ctx, engineBinary, args...); err != nil {
		return &ExecError{Op: "build", Err: err}
	}

	if m.cfg.UseAlibabaACR {
		canonical := imageRef(defaultRepository, m.tag)
		if err := runCommand(ctx, engineBinary, "tag", m.image, canonical); err != nil {
			return &ExecError{Op: "tag", Err: err}
		}
		m.logger.Info("re-tagged image under the default repository", "ref", canonical)
	}
	return nil
}

// Pull fetches the resolved image reference from its registry. Pulling an
// image that already exists locally is a logged no-op.
func (m *Manager) Pull(ctx context.Context) error {
	exists, err := m.imageExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		m.logger.Info("image already exists, nothing to pull", "ref", m.image)
		return nil
	}

	stderr, err := runCommandCapture(ctx, engineBinary, "pull", m.image)
	if err != nil {
		if isAuthFailure(stderr) || isAuthFailure(err.Error()) {
			return &AuthRequiredError{Ref: m.image, Registry: registryHost(m.repository)}
		}
		return &ExecError{Op: "pull", Stderr: strings.TrimSpace(stderr), Err: err}
	}
	return nil
}

// Start launches the detached container. Requires the image locally (start
// never builds or pulls); a container already running is a logged no-op.
func (m *Manager) Start(ctx context.Context) error {
	running, err := m.containerRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		m.logger.Info("container is already running", "name", m.container)
		return nil
	}

	exists, err := m.imageExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return &ImageNotFoundError{Ref: m.image}
	}

	port, err := hostinfo.FreePortFromFunc(rosDefaultPort, m.portOccupied)
	if err != nil {
		return err
	}

	runtimeDir := filepath.Join(m.dataDir, "runtime")
	if err := assets.InflateRuntime(runtimeDir); err != nil {
		return err
	}
	mounts, err := m.composeMounts(runtimeDir)
	if err != nil {
		return err
	}
	if err := mounts.Prepare(); err != nil {
		return err
	}

	id, err := m.imageID(ctx)
	if err != nil {
		return err
	}

	args := []string{"run", "--rm", "-dit", "--name", m.container, "--hostname", m.hostname}
	args = append(args, mounts.Args()...)
	args = append(args,
		"--env=DISPLAY="+m.cfg.Env.Display,
		"--env=ROS_HOSTNAME="+m.hostname,
		fmt.Sprintf("--env=ROS_MASTER_URI=http://%s:%d", m.hostname, port),
		// USB passthrough and ROS node discovery need these; not configurable.
		"--privileged",
		"--network=host",
		id,
	)
	if err := runCommand(ctx, engineBinary, args...); err != nil {
		return &ExecError{Op: "run", Err: err}
	}
	m.logger.Info("container started", "name", m.container, "ros_master_port", port)
	return nil
}

// Enter attaches an interactive bash session to the running container and
// blocks until it ends.
func (m *Manager) Enter(ctx context.Context) error {
	running, err := m.containerRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		return &NotRunningError{Container: m.container}
	}

	m.logger.Info("entering container in a bash session", "name", m.container)
	err = runInteractive(engineBinary, "exec", "--interactive", "--tty",
		"--env=DISPLAY="+m.cfg.Env.Display, m.container, "bash")
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The session's exit status belongs to the user, not to us.
		return nil
	}
	if err != nil {
		return &ExecError{Op: "exec", Err: err}
	}
	return nil
}

// Stop stops the running container. Stopping a non-running container is an
// error, not a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	running, err := m.containerRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		return &NotRunningError{Container: m.container}
	}

	m.logger.Info("stopping container", "name", m.container)
	if err := runCommand(ctx, engineBinary, "stop", m.container); err != nil {
		return &ExecError{Op: "stop", Err: err}
	}
	return nil
}

// composeMounts builds the fixed infra mounts plus any custom-model mounts,
// rewriting the airframe manifest when models are present.
func (m *Manager) composeMounts(runtimeDir string) (*MountSet, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}

	s := &MountSet{}
	s.Add(Mount{Source: m.cfg.WorkspaceDir, Target: m.cfg.WorkspaceTarget, EnsureDir: true})
	s.Add(Mount{Source: "/tmp/.X11-unix", Target: "/tmp/.X11-unix"})
	s.Add(Mount{Source: filepath.Join(home, ".Xauthority"), Target: "/root/.Xauthority"})
	s.Add(Mount{Source: filepath.Join(m.cfg.WorkspaceDir, "ros_log"), Target: "/root/.ros/log", EnsureDir: true})
	s.Add(Mount{Source: filepath.Join(runtimeDir, assets.PX4SetupScriptName), Target: "/root/ws/px4_setup.bash", ReadOnly: true})

	if len(m.cfg.CustomModelDirs) == 0 {
		return s, nil
	}

	manifest, err := ParseManifest(assets.ModelManifestTemplate)
	if err != nil {
		return nil, err
	}
	for _, dir := range m.cfg.CustomModelDirs {
		if err := s.AddCustomModel(dir, manifest); err != nil {
			return nil, err
		}
		m.logger.Info("mounted custom drone model", "dir", dir)
	}

	manifestPath := filepath.Join(runtimeDir, assets.ModelManifestName)
	if err := os.WriteFile(manifestPath, manifest.Render(), 0o644); err != nil {
		return nil, fmt.Errorf("write airframe manifest: %w", err)
	}
	if !s.HasSource(manifestPath) {
		s.Add(Mount{Source: manifestPath, Target: containerManifestPath, ReadOnly: true})
	}
	return s, nil
}

// Observed state below. Each observation is an explicit engine query with no
// hidden caching, so a rebuild mid-session is picked up at the next decision
// point.

func (m *Manager) containerRunning(ctx context.Context) (bool, error) {
	out, err := commandOutput(ctx, engineBinary, "container", "inspect", "-f", "{{.State.Status}}", m.container)
	if err != nil {
		if strings.Contains(err.Error(), "No such object") || strings.Contains(err.Error(), "No such container") {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(out) == "running", nil
}

func (m *Manager) imageExists(ctx context.Context) (bool, error) {
	if _, err := commandOutput(ctx, engineBinary, "image", "inspect", m.image); err != nil {
		if strings.Contains(err.Error(), "No such image") || strings.Contains(err.Error(), "No such object") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Manager) imageID(ctx context.Context) (string, error) {
	out, err := commandOutput(ctx, engineBinary, "images", "--format", "{{.Repository}}:{{.Tag}},{{.ID}}")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		ref, id, ok := strings.Cut(strings.TrimSpace(line), ",")
		if ok && ref == m.image && id != "" {
			return id, nil
		}
	}
	return "", &ImageNotFoundError{Ref: m.image}
}

func isAuthFailure(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "authentication required") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "denied: requested access") ||
		strings.Contains(msg, "authorization failed")
}
