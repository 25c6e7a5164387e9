package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external binary the pipeline relies on. Command is
// either a bare name looked up on PATH or a path to the executable.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement plus the outcome of looking it up. Command holds
// the resolved path when the binary was found.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	req.Command = cmd
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}

	if strings.ContainsRune(cmd, filepath.Separator) {
		info, err := os.Stat(cmd)
		switch {
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		case !isExecutable(info):
			status.Detail = fmt.Sprintf("%q is not executable", cmd)
		default:
			status.Available = true
		}
		return status
	}

	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

func isExecutable(info os.FileInfo) bool {
	return info != nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0
}
