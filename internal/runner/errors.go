package runner

import "fmt"

// MissingRuntimeError indicates the container engine binary is not installed.
type MissingRuntimeError struct {
	Name string
}

func (e *MissingRuntimeError) Error() string {
	return fmt.Sprintf("required command %q not found in PATH; install Docker following https://docs.docker.com/engine/install/ and try again", e.Name)
}

// PermissionError indicates the invoking user lacks the group membership
// needed to talk to the container engine.
type PermissionError struct {
	User  string
	Group string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %q is not in the %q group; add it with `sudo usermod -a -G %s %s` and restart the session", e.User, e.Group, e.Group, e.User)
}

// ImageNotFoundError indicates an action that needs a local image was invoked
// before build or pull.
type ImageNotFoundError struct {
	Ref string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image %q does not exist locally; run `fly-in-docker build` or `fly-in-docker pull` first", e.Ref)
}

// AuthRequiredError indicates a pull failed specifically because the registry
// requires a login.
type AuthRequiredError struct {
	Ref      string
	Registry string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("pulling %q requires registry authentication; log in with `docker login %s` and retry", e.Ref, e.Registry)
}

// NotRunningError indicates enter or stop was invoked without a running
// container.
type NotRunningError struct {
	Container string
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("container %q is not running; start it with `fly-in-docker start` first", e.Container)
}

// ConfigError indicates invalid user-supplied configuration, such as a custom
// model directory missing its required contents.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Path, e.Reason)
}

// ExecError is a generic non-zero exit from an engine invocation not covered
// by a more specific kind. Stderr from the subprocess is preserved.
type ExecError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("docker %s failed: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("docker %s failed: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
