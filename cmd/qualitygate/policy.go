package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policydiff"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/submission"
)

func newPolicyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect, analyse and publish policy versions",
	}

	var showVersion string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active policy version, or --version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				if showVersion == "" {
					return writeJSON(cmd.OutOrStdout(), a.service.GetCurrentPolicy(ctx))
				}
				v, err := readVersion(ctx, a, showVersion)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	show.Flags().StringVar(&showVersion, "version", "", "Show this published version instead of the active one")

	analytics := &cobra.Command{
		Use:   "analytics <rule-id>",
		Short: "Summarise enforcement outcomes tagged with a rule id or field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				return writeJSON(cmd.OutOrStdout(), a.service.AnalyzeRulePerformance(ctx, args[0]))
			})
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Propose rule changes from recent outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				return writeJSON(cmd.OutOrStdout(), a.service.GenerateRuleSuggestions(ctx))
			})
		},
	}

	var rulesFile, adminID string
	var dryRun bool
	publish := &cobra.Command{
		Use:   "publish",
		Short: "Publish a rule file as the next active policy version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesFile == "" || adminID == "" {
				return codeError(exitInput, "--rules and --admin are required")
			}
			rf, err := submission.LoadRules(rulesFile)
			if err != nil {
				return codeError(exitInput, "loading rules: %s", err)
			}
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				return runPublish(ctx, cmd.OutOrStdout(), a, rf, adminID, dryRun)
			})
		},
	}
	publish.Flags().StringVar(&rulesFile, "rules", "", "YAML or JSON rule file")
	publish.Flags().StringVar(&adminID, "admin", "", "Id of the administrator publishing the version")
	publish.Flags().BoolVar(&dryRun, "dry-run", false, "Print the diff against the active version without publishing")

	diff := &cobra.Command{
		Use:   "diff <from> [to]",
		Short: "Diff two policy versions; to defaults to the active version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				from, err := readVersion(ctx, a, args[0])
				if err != nil {
					return err
				}
				to := a.service.GetCurrentPolicy(ctx)
				if len(args) == 2 {
					v, err := readVersion(ctx, a, args[1])
					if err != nil {
						return err
					}
					to = *v
				}
				writeDiff(cmd.OutOrStdout(), *from, to)
				return nil
			})
		},
	}

	cmd.AddCommand(show, analytics, suggest, publish, diff)
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return codeError(exitStore, "connecting to database: %s", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := store.Migrate(db); err != nil {
				return codeError(exitStore, "migrating database: %s", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(store.Models()))
			return nil
		},
	}
}

func runPublish(ctx context.Context, w io.Writer, a *app, rf *submission.RuleFile, adminID string, dryRun bool) error {
	current := a.service.GetCurrentPolicy(ctx)
	proposed := schema.PolicyVersion{Version: "proposed", Rules: rf.Rules}
	changes := policydiff.Compare(current, proposed)

	if dryRun {
		writeDiff(w, current, proposed)
		return nil
	}

	changelog := rf.Changelog
	if len(changelog) == 0 {
		changelog = policydiff.Changelog(changes)
	}
	v, err := a.service.CreatePolicyVersion(ctx, rf.Rules, changelog, adminID)
	if err != nil {
		if errors.Is(err, policy.ErrInvalidRule) {
			return codeError(exitInput, "%s", err)
		}
		return codeError(exitPublish, "%s", err)
	}
	return writeJSON(w, v)
}

// withApp opens the database-backed collaborators for one command.
func withApp(ctx context.Context, configPath string, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func readVersion(ctx context.Context, a *app, version string) (*schema.PolicyVersion, error) {
	v, err := a.policies.ReadVersion(ctx, version)
	if errors.Is(err, store.ErrNotFound) {
		return nil, codeError(exitInput, "policy version %s not found", version)
	}
	if err != nil {
		return nil, codeError(exitStore, "reading policy version %s: %s", version, err)
	}
	return v, nil
}

func writeDiff(w io.Writer, from, to schema.PolicyVersion) {
	changes := policydiff.Compare(from, to)
	if changes.Empty() {
		fmt.Fprintf(w, "no rule changes between %s and %s\n", from.Version, to.Version)
		return
	}
	for _, line := range policydiff.Changelog(changes) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprint(w, policydiff.Diff(from, to))
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return codeError(exitInput, "encoding output: %s", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
