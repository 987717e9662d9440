// Package hostinfo answers read-only questions about the local machine:
// hostname, CPU architecture, group membership and TCP port occupancy.
// Nothing in this package mutates host state.
package hostinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Arch is the normalized CPU architecture class.
type Arch string

const (
	ArchAMD64   Arch = "amd64"
	ArchARM64   Arch = "arm64"
	ArchUnknown Arch = "unknown"
)

// Hostname returns the machine's hostname, or an empty string when it can not
// be determined.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// Architecture reports the running machine's normalized architecture class.
func Architecture() Arch {
	return NormalizeArch(runtime.GOARCH)
}

// NormalizeArch folds Go and uname spellings into an Arch.
func NormalizeArch(raw string) Arch {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "amd64", "x86_64":
		return ArchAMD64
	case "arm64", "aarch64":
		return ArchARM64
	default:
		return ArchUnknown
	}
}

const groupFile = "/etc/group"

// UserInGroup reports whether the invoking user belongs to the named group,
// checking both the user's gid list and the group's member list. A group that
// does not exist on the system yields (false, nil), not an error.
func UserInGroup(name string) (bool, error) {
	grp, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return false, nil
		}
		return false, fmt.Errorf("look up group %q: %w", name, err)
	}

	current, err := user.Current()
	if err != nil {
		return false, fmt.Errorf("resolve current user: %w", err)
	}

	gids, err := current.GroupIds()
	if err == nil {
		for _, gid := range gids {
			if gid == grp.Gid {
				return true, nil
			}
		}
	}

	// Supplementary membership granted after session start only shows up in
	// the group's member list.
	f, err := os.Open(groupFile)
	if err != nil {
		return false, nil
	}
	defer f.Close()
	return groupHasMember(f, name, current.Username), nil
}

// groupHasMember scans /etc/group-format data for an explicit member entry.
func groupHasMember(r io.Reader, group, username string) bool {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 4 || fields[0] != group {
			continue
		}
		for _, member := range strings.Split(fields[3], ",") {
			if strings.TrimSpace(member) == username {
				return true
			}
		}
	}
	return false
}

// PortOccupied reports whether a local TCP listener already holds the exact
// port. The probe binds and immediately releases the port; it is a check, not
// a reservation.
func PortOccupied(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return true
	}
	_ = l.Close()
	return false
}

// FreePortFrom returns the first unoccupied TCP port probing sequentially
// upward from start.
func FreePortFrom(start int) (int, error) {
	return FreePortFromFunc(start, PortOccupied)
}

// FreePortFromFunc is FreePortFrom with an injectable occupancy probe.
func FreePortFromFunc(start int, occupied func(int) bool) (int, error) {
	if start <= 0 || start > 65535 {
		return 0, fmt.Errorf("invalid starting port %d", start)
	}
	for port := start; port <= 65535; port++ {
		if !occupied(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port at or above %d", start)
}
