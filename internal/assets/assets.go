// Package assets bundles the resources the container workflow needs on disk:
// the image build context and the runtime files mounted into the container.
// Resources inflate into a per-user data directory so the binary stays
// self-contained.
package assets

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed Dockerfile
var Dockerfile []byte

//go:embed px4_setup.bash
var PX4SetupScript []byte

// ModelManifestTemplate is the pristine airframe CMakeLists fragment. It is
// parsed in memory on every start; only the mutated copy is written to disk.
//
//go:embed model_CMakeLists.txt
var ModelManifestTemplate []byte

const (
	appDirName = "fly-in-docker"

	// PX4SetupScriptName is the file name the setup script inflates under the
	// runtime directory.
	PX4SetupScriptName = "px4_setup.bash"

	// ModelManifestName is the file name the mutated airframe manifest is
	// written under in the runtime directory.
	ModelManifestName = "model_CMakeLists_mount.txt"
)

// DataDir resolves the per-user data root using XDG rules with a fallback to
// ~/.local/share/fly-in-docker.
func DataDir() (string, error) {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		if err == nil {
			err = fmt.Errorf("home directory not found")
		}
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// InflateContext materializes the image build context into dir. Files already
// present are left alone so fetched artifacts survive repeated builds.
func InflateContext(dir string) error {
	return inflate(dir, map[string][]byte{
		"Dockerfile": Dockerfile,
	})
}

// InflateRuntime materializes the runtime resources mounted into the
// container.
func InflateRuntime(dir string) error {
	return inflate(dir, map[string][]byte{
		PX4SetupScriptName: PX4SetupScript,
	})
}

func inflate(dir string, files map[string][]byte) error {
	if dir == "" {
		return fmt.Errorf("directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
