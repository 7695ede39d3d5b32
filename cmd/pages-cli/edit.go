package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/tui"
)

type editFlags struct {
	title      string
	path       string
	status     string
	parent     int64
	templateID string
	skipFields bool
}

func newPagesEditCmd(a *app) *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a page's attributes and template fields interactively; without an id a new page is created",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client()
			if err != nil {
				return err
			}
			driver := a.driver(cmd)
			o := a.orchestrator(cmd, c, true)
			session := o.NewSession()

			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := session.Open(ctx, id); err != nil {
					return err
				}
			} else {
				parent := ""
				if f.parent > 0 {
					parent = strconv.FormatInt(f.parent, 10)
				}
				if err := session.OpenNew(ctx, parent); err != nil {
					return err
				}
			}

			values := session.Values()
			flags := cmd.Flags()
			if flags.Changed("title") {
				values.Title = f.title
			}
			if flags.Changed("path") {
				values.Path = f.path
			}
			if flags.Changed("status") {
				status, err := statusOption(f.status)
				if err != nil {
					return err
				}
				values.Status = status
			}
			if flags.Changed("parent") {
				values.Parent = parentOption(session.ParentOptions(), f.parent)
				if f.parent > 0 && values.Parent == nil {
					return fmt.Errorf("unknown parent page %d", f.parent)
				}
			}
			if values.Title == "" {
				if values.Title, err = driver.Input(ctx, tui.InputConfig{Message: "Title", Validator: required("title")}); err != nil {
					return err
				}
			}
			if values.Path == "" {
				if values.Path, err = driver.Input(ctx, tui.InputConfig{Message: "Path", Default: "/", Validator: validPath}); err != nil {
					return err
				}
			}
			session.SetValues(values)

			if flags.Changed("template") {
				if err := session.ChangeTemplate(ctx, f.templateID); err != nil {
					return err
				}
			}

			if tree := session.Fields(); !f.skipFields && len(tree) > 0 {
				editor := tui.New(
					tui.WithPromptDriver(driver),
					tui.WithEngine(o.Engine()),
					tui.WithOutput(cmd.ErrOrStderr()),
				)
				edited, err := editor.Edit(ctx, tree)
				if errors.Is(err, tui.ErrAborted) {
					return errors.New("edit aborted, nothing saved")
				}
				if err != nil {
					return err
				}
				session.SetFields(edited)
			}

			saved, err := session.Submit(ctx)
			if err != nil {
				return err
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved page %d %q at %s\n", saved.ID, saved.Title, saved.Path)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "Page title")
	flags.StringVar(&f.path, "path", "", "Page path")
	flags.StringVar(&f.status, "status", "", "PUBLISHED or DRAFT")
	flags.Int64Var(&f.parent, "parent", 0, "Parent page id (0 for a root page)")
	flags.StringVar(&f.templateID, "template", "", "Template id (empty to clear)")
	flags.BoolVar(&f.skipFields, "skip-fields", false, "Do not prompt for template fields")
	return cmd
}

func statusOption(raw string) (page.Option[page.Status], error) {
	for _, option := range page.StatusOptions() {
		if strings.EqualFold(string(option.Value), raw) {
			return option, nil
		}
	}
	return page.Option[page.Status]{}, fmt.Errorf("unknown status %q", raw)
}

func parentOption(options []page.Option[int64], id int64) *page.Option[int64] {
	for _, option := range options {
		if option.Value == id {
			o := option
			return &o
		}
	}
	return nil
}

func required(name string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validPath(value string) error {
	if !strings.HasPrefix(value, "/") {
		return errors.New("path must start with /")
	}
	return nil
}
