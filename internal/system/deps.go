package system

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type program struct {
	name     string
	purpose  string
	critical bool
}

// CheckDependencies validates that the copy tool is available and lists optional
// helpers that are missing. Only a missing copy tool is an error.
func CheckDependencies(tool string) (warnings []string, err error) {
	return checkPrograms(requiredPrograms(tool, runtime.GOOS), exec.LookPath)
}

func requiredPrograms(tool, goos string) []program {
	progs := []program{{tool, "mirroring the source folder", true}}
	switch goos {
	case "windows":
		progs = append(progs, program{"shutdown", "reboot and shutdown post-actions", false})
	case "darwin":
		progs = append(progs,
			program{"shutdown", "reboot and shutdown post-actions", false},
			program{"osascript", "completion notifications", false})
	default:
		progs = append(progs,
			program{"systemctl", "reboot and shutdown post-actions", false},
			program{"notify-send", "completion notifications", false})
	}
	return progs
}

func checkPrograms(progs []program, lookup func(string) (string, error)) ([]string, error) {
	var missing, warnings []string
	for _, prog := range progs {
		if _, err := lookup(prog.name); err == nil {
			continue
		}
		entry := fmt.Sprintf("%s (%s)", prog.name, prog.purpose)
		if prog.critical {
			missing = append(missing, entry)
		} else {
			warnings = append(warnings, entry)
		}
	}

	if len(missing) > 0 {
		return warnings, fmt.Errorf("missing critical programs:\n%s", formatMissingList(missing))
	}
	return warnings, nil
}

func formatMissingList(missing []string) string {
	var b strings.Builder
	for _, prog := range missing {
		fmt.Fprintf(&b, "   • %s\n", prog)
	}
	return b.String()
}
