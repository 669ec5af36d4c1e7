package util

import (
	"context"
	"errors"
	"fmt"
	"github.com/markusressel/daq2go/internal/ui"
	"os/exec"
	"strings"
	"time"
)

// SafeCmdExecution runs the given executable after checking its permissions and returns
// its trimmed stdout. The command is killed when either ctx is done or timeout elapsed.
func SafeCmdExecution(ctx context.Context, executable string, args []string, timeout time.Duration) (string, error) {
	if _, err := CheckFilePermissionsForExecution(executable); err != nil {
		return "", fmt.Errorf("cannot execute %s: %s", executable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		ui.Warning("Command timed out: %s", executable)
		return "", fmt.Errorf("command timed out after %s: %s", timeout, executable)
	}

	if err != nil {
		ui.Warning("Command failed to execute: %s", executable)
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}

// ReplacePlaceholders replaces every "%key%" occurrence in args with the mapped value
func ReplacePlaceholders(args []string, values map[string]string) []string {
	var result = make([]string, 0, len(args))
	for _, arg := range args {
		replaced := arg
		for key, value := range values {
			replaced = strings.ReplaceAll(replaced, "%"+key+"%", value)
		}
		result = append(result, replaced)
	}
	return result
}
