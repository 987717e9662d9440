// Package runner manages the lifecycle of the simulation dev container: one
// logical container per workspace directory, driven entirely through the
// docker command-line program.
package runner

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/flyingbitac/fly-in-docker/internal/assets"
	"github.com/flyingbitac/fly-in-docker/internal/configstore"
	"github.com/flyingbitac/fly-in-docker/internal/hostinfo"
)

const (
	engineBinary  = "docker"
	requiredGroup = "docker"

	// rosDefaultPort is where the ROS master URI starts probing from.
	rosDefaultPort = 11311
)

// Env is the explicit, enumerated set of environment variables the tool
// consumes. The process environment is never captured wholesale.
type Env struct {
	Display    string
	HTTPProxy  string
	HTTPSProxy string
}

// EnvFromProcess reads the consumed variables, defaulting DISPLAY to :0.
func EnvFromProcess() Env {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	return Env{
		Display:    display,
		HTTPProxy:  os.Getenv("http_proxy"),
		HTTPSProxy: os.Getenv("https_proxy"),
	}
}

// Config is the user-supplied intent, immutable once the Manager is built.
type Config struct {
	WorkspaceDir    string
	CustomModelDirs []string
	UseAlibabaACR   bool
	ARMOverride     bool
	WorkspaceTarget string
	Env             Env
}

// Manager reconciles desired configuration against the engine's observed
// state. All observed state is re-derived per invocation; nothing is cached
// across processes.
type Manager struct {
	cfg        Config
	tag        string
	repository string
	image      string
	container  string
	hostname   string
	dataDir    string

	logger       *log.Logger
	portOccupied func(int) bool
}

// NewManager validates the environment and derives image and container
// identity. Fails before any engine call when docker is missing or the user
// lacks the docker group.
func NewManager(cfg Config) (*Manager, error) {
	if err := ensureCommand(engineBinary); err != nil {
		return nil, err
	}

	inGroup, err := hostinfo.UserInGroup(requiredGroup)
	if err != nil {
		return nil, err
	}
	if !inGroup {
		return nil, &PermissionError{User: currentUsername(), Group: requiredGroup}
	}

	workspace, err := filepath.Abs(cfg.WorkspaceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir %q: %w", cfg.WorkspaceDir, err)
	}
	cfg.WorkspaceDir = filepath.Clean(workspace)
	if cfg.WorkspaceTarget == "" {
		cfg.WorkspaceTarget = configstore.DefaultWorkspaceTarget
	}

	dataDir, err := assets.DataDir()
	if err != nil {
		return nil, err
	}

	tag := resolveTag(cfg.ARMOverride, hostinfo.Architecture())
	repository := resolveRepository(cfg.UseAlibabaACR)

	return &Manager{
		cfg:          cfg,
		tag:          tag,
		repository:   repository,
		image:        imageRef(repository, tag),
		container:    containerName(cfg.WorkspaceDir, tag),
		hostname:     hostinfo.Hostname(),
		dataDir:      dataDir,
		logger:       log.Default(),
		portOccupied: hostinfo.PortOccupied,
	}, nil
}

// ImageRef returns the fully-resolved image reference.
func (m *Manager) ImageRef() string {
	return m.image
}

// ContainerName returns the derived container name for this workspace.
func (m *Manager) ContainerName() string {
	return m.container
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
