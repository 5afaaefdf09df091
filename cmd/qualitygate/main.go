package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes.
const (
	exitBlocked = 2
	exitInput   = 3
	exitStore   = 4
	exitPublish = 5
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "qualitygate",
		Short:        "Adaptive quality enforcement for NCA and MJC records",
		Long:         "qualitygate validates non-conformance and maintenance job card text against BRCGS expectations, escalating enforcement with each resubmission.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (env QUALITYGATE_* overrides)")

	root.AddCommand(
		newCheckCmd(&configPath),
		newServeCmd(&configPath),
		newPolicyCmd(&configPath),
		newMigrateCmd(&configPath),
	)
	return root
}
