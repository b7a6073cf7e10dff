package command

import "os"

// Context is the session snapshot attached to every parsed agent command.
// Collection never fails; fields the collector cannot fill stay empty.
type Context struct {
	// WorkingDir is the process working directory at parse time.
	WorkingDir string

	// Env holds the whitelisted environment variables that were set.
	Env map[string]string

	// Scrollback holds the most recent shell output lines, newest last.
	Scrollback []string
}

// envWhitelist is the closed set of environment variables that may be
// attached to a command. Nothing outside it ever leaves the process.
var envWhitelist = []string{
	"PATH", "HOME", "USER", "PWD", "SHELL", "TERM",
	"LANG", "LC_ALL", "EDITOR", "PAGER", "PS1",
	"HOSTNAME", "DISPLAY", "XDG_SESSION_TYPE",
}

// collectContext builds a snapshot from the current process state and the
// trailing scrollback lines. Errors leave the affected field empty.
func collectContext(includeEnv bool, scrollback []string, maxLines int) Context {
	var ctx Context

	if wd, err := os.Getwd(); err == nil {
		ctx.WorkingDir = wd
	}

	if includeEnv {
		env := make(map[string]string, len(envWhitelist))
		for _, name := range envWhitelist {
			if v, ok := os.LookupEnv(name); ok {
				env[name] = v
			}
		}
		ctx.Env = env
	}

	if maxLines > maxContextLines {
		maxLines = maxContextLines
	}
	if n := len(scrollback); n > 0 && maxLines > 0 {
		if n > maxLines {
			scrollback = scrollback[n-maxLines:]
		}
		ctx.Scrollback = append([]string(nil), scrollback...)
	}

	return ctx
}
