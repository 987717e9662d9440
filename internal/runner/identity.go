package runner

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/flyingbitac/fly-in-docker/internal/hostinfo"
)

const (
	versionTag   = "deploy-v0.3"
	armTagSuffix = "-aarch64"

	defaultRepository = "deathhorn/onboard_env"
	acrRepository     = "crpi-jq3nu6qbricb9zcb.cn-beijing.personal.cr.aliyuncs.com/zxh_in_bitac/drones"

	containerPrefix = "onboard"

	maxNameComponent = 40
)

// resolveTag picks the image tag variant: the arm tag when forced by flag or
// when the probed architecture is arm64-class, the default tag otherwise.
func resolveTag(armOverride bool, arch hostinfo.Arch) string {
	if armOverride || arch == hostinfo.ArchARM64 {
		return versionTag + armTagSuffix
	}
	return versionTag
}

func resolveRepository(useACR bool) string {
	if useACR {
		return acrRepository
	}
	return defaultRepository
}

func imageRef(repository, tag string) string {
	return repository + ":" + tag
}

// registryHost extracts the host component docker login expects. Docker Hub
// repositories have no explicit host.
func registryHost(repository string) string {
	host, _, ok := strings.Cut(repository, "/")
	if ok && strings.Contains(host, ".") {
		return host
	}
	return "docker.io"
}

// containerName derives a stable, collision-resistant engine-legal name from
// the workspace path and image tag, so concurrent workspaces each get their
// own container and a later enter/stop in a fresh process finds it again.
func containerName(workspace, tag string) string {
	h := fnv.New32a()
	h.Write([]byte(workspace))
	h.Write([]byte{0})
	h.Write([]byte(tag))

	base := sanitizeName(filepath.Base(filepath.Clean(workspace)))
	if base == "" {
		base = "workspace"
	}
	return fmt.Sprintf("%s-%s-%08x", containerPrefix, base, h.Sum32())
}

// sanitizeName lowercases and folds anything the engine rejects in an object
// name into hyphens, collapsing runs and trimming the edges.
func sanitizeName(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	var (
		builder    strings.Builder
		lastHyphen bool
	)
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastHyphen = false
		default:
			if builder.Len() == 0 || lastHyphen {
				continue
			}
			builder.WriteRune('-')
			lastHyphen = true
		}
	}

	result := strings.Trim(builder.String(), "-")
	if len(result) > maxNameComponent {
		result = strings.Trim(result[:maxNameComponent], "-")
	}
	return result
}
