package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ocular/internal/browser"
	"ocular/internal/config"
	"ocular/internal/logging"
	"ocular/internal/watch"
	"ocular/pkg/flow"
)

var runFlags struct {
	url      string
	profile  string
	timeout  time.Duration
	dryRun   bool
	headful  bool
	watch    bool
	vars     []string
	maxSteps int
}

var runCmd = &cobra.Command{
	Use:   "run <workflow.json>",
	Short: "Execute a workflow against a browser session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.url, "url", "", "URL to navigate to before the run")
	f.StringVar(&runFlags.profile, "profile", "", "YAML run profile")
	f.DurationVar(&runFlags.timeout, "timeout", 5*time.Minute, "Max run duration")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "Log input actions instead of performing them")
	f.BoolVar(&runFlags.headful, "headful", false, "Run the browser with a visible window")
	f.BoolVar(&runFlags.watch, "watch", false, "Re-run when the workflow file changes")
	f.StringSliceVar(&runFlags.vars, "var", nil, "Preset variable as name=value (repeatable)")
	f.IntVar(&runFlags.maxSteps, "max-steps", 0, "Node visit cap (0 = profile default)")
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]

	profile := config.Default()
	if runFlags.profile != "" {
		var err error
		if profile, err = config.Load(runFlags.profile); err != nil {
			return err
		}
	}
	if runFlags.url != "" {
		profile.StartURL = runFlags.url
	}
	if runFlags.headful {
		profile.Headless = false
	}
	if runFlags.maxSteps > 0 {
		profile.MaxSteps = runFlags.maxSteps
	}

	if runFlags.watch {
		return watch.File(cmd.Context(), path, 300*time.Millisecond, func(ctx context.Context) {
			if err := executeOnce(ctx, path, profile); err != nil {
				logging.New("run").Error("run failed", "error", err)
			}
		})
	}
	return executeOnce(cmd.Context(), path, profile)
}

func executeOnce(ctx context.Context, path string, profile config.Profile) error {
	logger := logging.New("run")

	wf, err := flow.LoadWorkflow(path)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, runFlags.timeout)
	defer cancel()

	b, err := browser.New(runCtx, browser.Options{
		Headless: profile.Headless,
		Width:    profile.WindowWidth,
		Height:   profile.WindowHeight,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	if profile.StartURL != "" {
		if err := b.Navigate(runCtx, profile.StartURL); err != nil {
			return err
		}
	}

	var actuator flow.Actuator = b
	if runFlags.dryRun {
		actuator = flow.NopActuator{Logger: logger}
	}

	rc := flow.NewRunContext(b, actuator, logger)
	for name, value := range profile.Variables {
		rc.Vars.Set(name, value)
	}
	for _, kv := range runFlags.vars {
		name, value, ok := cutVar(kv)
		if !ok {
			return fmt.Errorf("bad --var %q: want name=value", kv)
		}
		rc.Vars.Set(name, value)
	}

	engine := flow.NewEngine(flow.Builtins())
	engine.Logger = logger
	engine.Observer = &flow.LogObserver{Logger: logger}
	engine.MaxSteps = profile.MaxSteps

	res := engine.Run(runCtx, wf, rc)
	elapsed := res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)

	switch {
	case res.Success:
		logger.Info("run complete", "nodes", res.NodesExecuted, "elapsed", elapsed)
		return nil
	case res.Cancelled:
		return fmt.Errorf("run cancelled after %d node(s)", res.NodesExecuted)
	default:
		return fmt.Errorf("run failed at node %s: %s", res.FailedNode, res.Error)
	}
}

func cutVar(kv string) (string, string, bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], i > 0
		}
	}
	return "", "", false
}
