package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/model"
)

// NewRootCmd creates the root command for a11yscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11yscan",
		Short: "Accessibility checker for web pages",
		Long: `a11yscan is an accessibility checker for web pages.
It loads a page in headless Chrome, evaluates the axe-core rules for the
requested WCAG conformance levels and reports every failing element.

Exit codes:
  0  no violations
  1  violations found, none critical
  2  at least one critical violation
  3  the scan could not be completed`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Show the detailed report even without violations and enable debug logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(NewRootCmd().Execute())
}

// exitCode maps a command error to a process exit code and reports it on stderr.
// Errors without an explicit code, including usage errors, exit with 3.
func exitCode(err error) int {
	if err == nil {
		return int(model.OutcomeClean)
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ee.err)
		}
		return int(ee.outcome)
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return int(model.OutcomeError)
}

// exitError carries a scan outcome through cobra's error return.
// A nil err means the outcome is not a failure to report, only an exit code.
type exitError struct {
	outcome model.Outcome
	err     error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "scan finished: " + e.outcome.String()
}

func (e *exitError) Unwrap() error {
	return e.err
}
