package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/ozitag/tager-admin-pages/internal/config"
	"github.com/ozitag/tager-admin-pages/internal/render"
	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/orchestrator"
	"github.com/ozitag/tager-admin-pages/pkg/tui"
)

// app carries the state shared by every command.
type app struct {
	configPath string
	baseURL    string
	jsonOutput bool
	query      string
	templates  string

	cfg    config.Config
	lookup config.LookupFunc
	prompt tui.PromptDriver
}

func newRootCmd(a *app) *cobra.Command {
	if a.lookup == nil {
		a.lookup = os.LookupEnv
	}
	root := &cobra.Command{
		Use:           "pages-cli",
		Short:         "Manage admin pages and their template fields",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&a.baseURL, "base-url", "", "Admin pages API base URL")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print JSON instead of text")
	flags.StringVarP(&a.query, "query", "q", "", "JSONPath applied to the JSON output")
	flags.StringVar(&a.templates, "render-templates", "", "Directory with text templates overriding the built-in ones")

	root.AddCommand(
		newServeCmd(a),
		newTemplatesCmd(a),
		newPagesCmd(a),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(a.lookup); err != nil {
		return err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.Client.BaseURL = a.baseURL
	}
	a.cfg = cfg
	return nil
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.cfg.Client.BaseURL, client.WithTimeout(a.cfg.Client.Timeout))
}

func (a *app) driver(cmd *cobra.Command) tui.PromptDriver {
	if a.prompt != nil {
		return a.prompt
	}
	return tui.NewSurveyDriver(cmd.ErrOrStderr())
}

// orchestrator wires the page actions to the API, printing notices to
// stderr. With assumeYes every confirmation is accepted.
func (a *app) orchestrator(cmd *cobra.Command, c *client.Client, assumeYes bool) *orchestrator.Orchestrator {
	confirm := orchestrator.ConfirmFunc(nil)
	if !assumeYes {
		driver := a.driver(cmd)
		confirm = func(ctx context.Context, message string) (bool, error) {
			return driver.Confirm(ctx, tui.ConfirmConfig{Message: message})
		}
	}
	notify := orchestrator.NotifierFunc(func(n orchestrator.Notice) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Title, n.Body)
	})
	return orchestrator.New(c,
		orchestrator.WithConfirmer(confirm),
		orchestrator.WithNotifier(notify),
		orchestrator.WithTransformer(orchestrator.SanitizeHTML(nil)),
	)
}

func (a *app) renderer() (*render.Engine, error) {
	if a.templates != "" {
		return render.New(render.WithBaseDir(a.templates))
	}
	return render.New()
}

func (a *app) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// wantsJSON reports whether output should be JSON. A query implies JSON.
func (a *app) wantsJSON() bool {
	return a.jsonOutput || a.query != ""
}

// writeJSON prints value as indented JSON, or the values selected by the
// JSONPath query one per line.
func (a *app) writeJSON(w io.Writer, value any) error {
	if a.query == "" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}

	expr, err := jp.ParseString(a.query)
	if err != nil {
		return fmt.Errorf("invalid jsonpath %q: %w", a.query, err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	for _, match := range expr.Get(data) {
		if s, ok := match.(string); ok {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		line, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("encode match: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	return nil
}
