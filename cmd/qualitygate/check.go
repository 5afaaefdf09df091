package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/render"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/review"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema/validate"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/submission"
)

// checkFlags holds the parsed flags for the check command.
type checkFlags struct {
	format            string
	out               string
	attempt           int
	rulesFile         string
	record            bool
	failOnBlock       bool
	severityThreshold string
	verbose           bool
}

func newCheckCmd(configPath *string) *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   "check <submission-file|->",
		Short: "Validate a submission and show the enforcement decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], *configPath, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json, md or text")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.IntVar(&flags.attempt, "attempt", 0, "Attempt number; 0 uses the submission's value or the enforcement log")
	f.StringVar(&flags.rulesFile, "rules", "", "Validate against the rules in this file instead of the active policy")
	f.BoolVar(&flags.record, "record", false, "Use the configured database for the active policy, attempt counting and the enforcement log")
	f.BoolVar(&flags.failOnBlock, "fail-on-block", false, "Exit 2 if the submission is blocked or needs manager approval")
	f.StringVar(&flags.severityThreshold, "severity-threshold", "warning", "Minimum issue severity to emit: warning or error")
	f.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")
	return cmd
}

// staticPolicy serves a rule set loaded from a file.
type staticPolicy struct{ v schema.PolicyVersion }

func (p staticPolicy) GetCurrentPolicy(context.Context) schema.PolicyVersion { return p.v }

func runCheck(ctx context.Context, w io.Writer, path, configPath string, flags checkFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFlags(flags); err != nil {
		return codeError(exitInput, "invalid flags: %s", err)
	}

	logVerbose(flags.verbose, "Loading submission: %s", path)
	var file *submission.File
	var err error
	if path == "-" {
		file, err = submission.LoadReader("stdin.json", os.Stdin)
	} else {
		file, err = submission.Load(path)
	}
	if err != nil {
		return codeError(exitInput, "loading submission: %s", err)
	}
	sub := *file.Submission
	if flags.attempt > 0 {
		sub.AttemptNumber = flags.attempt
	}

	gate := &enforcement.Gate{Log: logger.Nop()}
	if flags.rulesFile != "" {
		logVerbose(flags.verbose, "Loading rules: %s", flags.rulesFile)
		rf, err := submission.LoadRules(flags.rulesFile)
		if err != nil {
			return codeError(exitInput, "loading rules: %s", err)
		}
		gate.Policy = staticPolicy{v: schema.PolicyVersion{Version: "local", Rules: rf.Rules, Changelog: rf.Changelog}}
	}
	if flags.record {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logVerbose(flags.verbose, "Connecting to %s database", cfg.Database.Driver)
		a, err := openApp(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer a.close()
		if gate.Policy == nil {
			gate.Policy = a.service
		}
		gate.Attempts = a.outcomes
		gate.Outcomes = a.outcomes
		gate.Log = a.log
	}

	policyVersion := ""
	if gate.Policy != nil {
		policyVersion = gate.Policy.GetCurrentPolicy(ctx).Version
	}

	logVerbose(flags.verbose, "Evaluating %s submission", sub.FormType)
	d, err := gate.Evaluate(ctx, sub)
	if err != nil {
		if errors.Is(err, validate.ErrInvalid) {
			return codeError(exitInput, "invalid submission: %s", err)
		}
		return codeError(exitStore, "evaluating submission: %s", err)
	}

	// Summary counts reflect all issues; the threshold only trims the list.
	report := &schema.Report{
		Tool:    "qualitygate",
		Version: version,
		Input: schema.Input{
			Path:     path,
			SHA256:   file.Hash,
			FormType: sub.FormType,
			FormID:   sub.FormID,
			UserID:   sub.UserID,
		},
		Summary:  review.Summarize(d, policyVersion),
		Decision: d,
	}
	report.Decision.Issues = review.FilterBySeverity(d.Issues, schema.Severity(flags.severityThreshold))

	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(exitInput, "invalid format: %s", err)
	}
	outputBytes, err := renderer.Render(report)
	if err != nil {
		return codeError(exitInput, "rendering output: %s", err)
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, outputBytes, 0o644); err != nil {
			return codeError(exitInput, "writing output file: %s", err)
		}
	} else {
		if _, err := w.Write(outputBytes); err != nil {
			return codeError(exitInput, "writing output: %s", err)
		}
		if len(outputBytes) > 0 && outputBytes[len(outputBytes)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}

	if flags.failOnBlock {
		switch d.Action {
		case schema.ActionSubmissionBlocked, schema.ActionManagerApprovalRequired:
			return codeError(exitBlocked, "submission %s at attempt %d (%s)", d.Action, d.AttemptNumber, d.Enforcement.EnforcementLevel)
		}
	}
	return nil
}

// validateFlags returns an error if any flag value is invalid.
func validateFlags(flags checkFlags) error {
	if _, err := render.NewRenderer(flags.format); err != nil {
		return fmt.Errorf("--format must be one of %s, got %q", strings.Join(render.Formats(), ", "), flags.format)
	}

	switch schema.Severity(flags.severityThreshold) {
	case schema.SeverityWarning, schema.SeverityError:
	default:
		return fmt.Errorf("--severity-threshold must be warning or error, got %q", flags.severityThreshold)
	}

	if flags.attempt < 0 {
		return fmt.Errorf("--attempt must be ≥ 0, got %d", flags.attempt)
	}
	return nil
}

// logVerbose writes a message to stderr when verbose mode is enabled.
func logVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
	}
}
