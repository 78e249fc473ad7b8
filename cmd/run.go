// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/browser/session"
	"github.com/xkilldash9x/jobprobe/internal/config"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
	"github.com/xkilldash9x/jobprobe/internal/observability"
	"github.com/xkilldash9x/jobprobe/internal/reporting"
	"github.com/xkilldash9x/jobprobe/internal/workflow"
)

// errChecksFailed signals a completed run with failing checks.
var errChecksFailed = errors.New("one or more checks failed")

// openBrowser starts the browser a run drives. The returned function releases
// it. Tests replace this with an in-memory driver.
var openBrowser = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (driver.Driver, func() error, error) {
	s, err := session.New(ctx, session.Options{
		Headless:          cfg.Headless,
		RemoteURL:         cfg.RemoteURL,
		Args:              cfg.Args,
		WindowWidth:       cfg.WindowWidth,
		WindowHeight:      cfg.WindowHeight,
		NavigationTimeout: cfg.NavigationTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		scenario  string
		headless  bool
		remoteURL string
		output    string
		format    string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the careers-site scenarios against a live browser",
		Long: `Runs the home and/or careers scenarios and writes a report of every check.
The command exits with status 1 when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// 1. Configuration Finalization
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if flags.Changed("remote-url") {
				cfg.SetBrowserRemoteURL(remoteURL)
			}
			if flags.Changed("output") {
				cfg.SetOutputPath(output)
			}
			if flags.Changed("format") {
				cfg.SetOutputFormat(format)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			scenarios, err := workflow.ParseScenario(scenario)
			if err != nil {
				return err
			}

			// The report sink is opened first so a bad path fails before the browser starts.
			reporter, err := newReporter(cmd, cfg.Output())
			if err != nil {
				return err
			}
			defer func() {
				if err := reporter.Close(); err != nil {
					logger.Warn("Failed to close report output", zap.Error(err))
				}
			}()

			// 2. Initialize Core Components
			d, release, err := openBrowser(ctx, cfg.Browser(), logger)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer func() {
				if err := release(); err != nil {
					logger.Warn("Failed to close browser session", zap.Error(err))
				}
			}()

			tk := interaction.NewToolkit(d, workflow.TimeoutsFromConfig(cfg.Probe().Timeouts), logger)
			runner, err := workflow.New(tk, workflow.SettingsFromConfig(cfg.Probe()), logger)
			if err != nil {
				return err
			}

			// 3. Execute the scenarios
			report := runner.Run(ctx, scenarios...)

			// 4. Reporting
			if err := reporter.Write(report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if ctx.Err() != nil {
				return fmt.Errorf("run aborted: %w", ctx.Err())
			}
			if !report.Passed {
				return errChecksFailed
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&scenario, "scenario", "s", string(workflow.ScenarioAll), "Scenario to run: home, careers or all")
	runCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser without a window")
	runCmd.Flags().StringVar(&remoteURL, "remote-url", "", "Attach to a running browser's DevTools endpoint instead of launching one")
	runCmd.Flags().StringVarP(&output, "output", "o", "", "Report file path (default stdout)")
	runCmd.Flags().StringVarP(&format, "format", "f", "", "Report format: text or json (default from config)")
	return runCmd
}

// newReporter writes to the command's stdout unless the config names a file.
func newReporter(cmd *cobra.Command, out config.OutputConfig) (reporting.Reporter, error) {
	if out.Path == "" || out.Path == "stdout" {
		if out.Format != "text" && out.Format != "json" {
			return nil, fmt.Errorf("unsupported output format: %s", out.Format)
		}
		return reporting.NewStream(out.Format, cmd.OutOrStdout()), nil
	}
	return reporting.New(out.Format, out.Path)
}
