package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/hub"
	"github.com/joestump/branchsmith/internal/mcpserver"
	"github.com/joestump/branchsmith/internal/tokens"
	"github.com/joestump/branchsmith/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "branchsmith",
		Short:         "Create work item branches named by configurable rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.Int("port", 8080, "HTTP port for the API")
	f.String("state-dir", ".branchsmith", "directory for persistent state")
	f.String("state-path", "", "sqlite database path (default: <state-dir>/branchsmith.db)")
	f.String("rules-file", "branchsmith.yaml", "YAML or JSON naming rules file")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "text", "log format: text or json")
	f.Bool("dry-run", false, "compute branch names without creating branches")
	f.Bool("create-enabled", false, "offer the create_branch MCP tool")

	// Viper keys use underscores so they match the env var suffix after
	// stripping the BRANCHSMITH_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("port", "port")
	bindFlag("state_dir", "state-dir")
	bindFlag("state_path", "state-path")
	bindFlag("rules_file", "rules-file")
	bindFlag("log_level", "log-level")
	bindFlag("log_format", "log-format")
	bindFlag("dry_run", "dry-run")
	bindFlag("create_enabled", "create-enabled")

	viper.SetEnvPrefix("BRANCHSMITH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(serveCmd(), mcpCmd(), previewCmd(), validateCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			webServer := web.New(a.cfg, a.svc, a.rules, a.db,
				web.WithLogger(a.logger),
				web.WithRedactor(web.NewRedactor(web.SecretEnvVars...)),
			)
			errCh := make(chan error, 1)
			go func() { errCh <- webServer.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
			select {
			case sig := <-sigCh:
				a.logger.Info("shutting down", "signal", sig.String())
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("web server: %w", err)
				}
				return nil
			}

			// End the event stream first so SSE clients get their done frame
			// and the long-lived connections do not hold up Shutdown.
			a.svc.Hub.Close(hub.TopicBranches)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := webServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("web server shutdown", "error", err)
			}
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			s := mcpserver.NewServer(a.svc, a.cfg.CreateEnabled, web.NewRedactor(web.SecretEnvVars...))
			return s.Run(ctx)
		},
	}
}

func previewCmd() *cobra.Command {
	var (
		repo, provider, cloneURL, source string
		wi                               tokens.WorkItem
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the branch name the rules produce for a work item",
		Long: "Print the branch name the rules produce for a work item. With --title the\n" +
			"work item is taken from the flags; otherwise it is fetched from the provider.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			var ref gitprovider.RepoRef
			if repo != "" || wi.Title == "" {
				if ref, err = parseRepo(repo); err != nil {
					return err
				}
			}
			ref.CloneURL = cloneURL
			req := creator.Request{Repo: ref, Provider: provider, SourceBranch: source, WorkItemID: wi.ID}
			if wi.Title != "" {
				req.WorkItem = &wi
			}

			p, err := a.svc.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.BranchName)
			fmt.Fprintf(out, "  rule: %s\n", p.Rule.MatchedRuleName)
			printValidation(out, p.Validation)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&repo, "repo", "", "repository as owner/name")
	fl.StringVar(&provider, "provider", "", "git provider (github, gitea); inferred from --clone-url when empty")
	fl.StringVar(&cloneURL, "clone-url", "", "clone URL used to infer the provider")
	fl.StringVar(&source, "source", "main", "source branch")
	fl.IntVar(&wi.ID, "work-item", 0, "work item (issue) number")
	fl.StringVar(&wi.Title, "title", "", "work item title")
	fl.StringVar(&wi.Type, "type", "", "work item type")
	fl.StringVar(&wi.State, "state", "", "work item state")
	fl.StringVar(&wi.AssignedTo, "assigned-to", "", "work item assignee")
	_ = cmd.MarkFlagRequired("work-item")
	return cmd
}

func validateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate NAME",
		Short: "Check a branch name against the ref naming rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, _, err := a.rules.Load(cmd.Context())
			if err != nil {
				return err
			}
			v := branchname.Validate(args[0], cfg.General.MaxLength)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(v); err != nil {
					return err
				}
			} else {
				printValidation(out, v)
			}
			if !v.Valid {
				return errors.New("invalid branch name")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "branchsmith %s\n", config.Version)
		},
	}
}
