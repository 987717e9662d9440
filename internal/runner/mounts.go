package runner

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Container-side paths the simulation workload expects. Fixed by the image
// layout, not configurable.
const (
	containerPX4Path       = "/root/ws/PX4-Autopilot"
	containerModelsPath    = containerPX4Path + "/Tools/simulation/gazebo-classic/sitl_gazebo-classic/models"
	containerAirframesPath = containerPX4Path + "/ROMFS/px4fmu_common/init.d-posix/airframes"
	containerManifestPath  = containerAirframesPath + "/CMakeLists.txt"
)

// Mount is one host-to-container path binding.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool

	// EnsureDir marks fixed infra mounts whose source directory is created
	// when absent. Never set for file mounts or user-supplied paths.
	EnsureDir bool
}

// MountSet accumulates bindings in insertion order. Duplicate targets are not
// deduplicated; the engine sees exactly what was added.
type MountSet struct {
	mounts []Mount
}

func (s *MountSet) Add(m Mount) {
	s.mounts = append(s.mounts, m)
}

// HasSource reports whether a binding with the given source already exists.
// Linear scan; n is bounded by the custom-model count.
func (s *MountSet) HasSource(source string) bool {
	for _, m := range s.mounts {
		if m.Source == source {
			return true
		}
	}
	return false
}

// Prepare creates missing EnsureDir sources as directories. Must run before
// the bindings are handed to the engine.
func (s *MountSet) Prepare() error {
	for _, m := range s.mounts {
		if !m.EnsureDir {
			continue
		}
		if err := os.MkdirAll(m.Source, 0o755); err != nil {
			return fmt.Errorf("create mount source %s: %w", m.Source, err)
		}
	}
	return nil
}

// Args renders the bindings as the flag pairs `docker run` expects,
// preserving insertion order.
func (s *MountSet) Args() []string {
	args := make([]string, 0, len(s.mounts)*2)
	for _, m := range s.mounts {
		spec := fmt.Sprintf("type=bind,source=%s,target=%s", m.Source, m.Target)
		if m.ReadOnly {
			spec += ",readonly"
		}
		args = append(args, "--mount", spec)
	}
	return args
}

// AddCustomModel scans a custom drone model directory: subdirectories are
// mesh/world assets mounted under the simulator's model path, and non-YAML
// files are airframe descriptors mounted under the airframe path and recorded
// in the manifest. A directory with no asset subdirectory or no airframe file
// is a configuration error.
func (s *MountSet) AddCustomModel(dir string, manifest *Manifest) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return &ConfigError{Path: dir, Reason: err.Error()}
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return &ConfigError{Path: abs, Reason: fmt.Sprintf("read model directory: %v", err)}
	}

	var modelMounted, airframeMounted bool
	for _, entry := range entries {
		source := filepath.Join(abs, entry.Name())
		switch {
		case entry.IsDir():
			modelMounted = true
			s.Add(Mount{
				Source:   source,
				Target:   path.Join(containerModelsPath, entry.Name()),
				ReadOnly: true,
			})
		case !strings.HasSuffix(entry.Name(), ".yaml"):
			airframeMounted = true
			s.Add(Mount{
				Source:   source,
				Target:   path.Join(containerAirframesPath, entry.Name()),
				ReadOnly: true,
			})
			manifest.Append(entry.Name())
		}
	}

	if !modelMounted {
		return &ConfigError{Path: abs, Reason: "no model asset subdirectory found"}
	}
	if !airframeMounted {
		return &ConfigError{Path: abs, Reason: "no airframe descriptor file found"}
	}
	return nil
}
