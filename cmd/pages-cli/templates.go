package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and validate page templates",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the templates known to the API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				list, err := c.Templates(cmd.Context())
				if err != nil {
					return err
				}
				if a.wantsJSON() {
					return a.writeJSON(cmd.OutOrStdout(), list)
				}
				for _, tpl := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tpl.ID, tpl.DisplayLabel())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a template and its field tree",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				tpl, err := c.Template(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.wantsJSON() {
					return a.writeJSON(cmd.OutOrStdout(), tpl)
				}
				r, err := a.renderer()
				if err != nil {
					return err
				}
				return r.Template(cmd.OutOrStdout(), tpl)
			},
		},
		newValidateCmd(a),
	)
	return cmd
}

// errInvalidTemplates makes validate exit non-zero after printing issues.
var errInvalidTemplates = errors.New("one or more templates are invalid")

func newValidateCmd(a *app) *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate template documents (JSON or YAML)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []template.ValidatorOption{template.WithRegistryKinds(fields.DefaultEngine().Registry())}
			for _, kind := range kinds {
				opts = append(opts, template.WithKnownKind(fields.Kind(kind)))
			}
			validator, err := template.NewValidator(opts...)
			if err != nil {
				return err
			}

			results := make(map[string]template.Result, len(args))
			failed := false
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				result := validator.Validate(data)
				results[filepath.ToSlash(path)] = result
				if !result.Valid {
					failed = true
				}
			}

			out := cmd.OutOrStdout()
			if a.wantsJSON() {
				if err := a.writeJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, path := range args {
					result := results[filepath.ToSlash(path)]
					status := "ok"
					if !result.Valid {
						status = "invalid"
					}
					fmt.Fprintf(out, "%s: %s\n", path, status)
					for _, issue := range result.Issues {
						fmt.Fprintf(out, "  %s\n", issue)
					}
				}
			}
			if failed {
				return errInvalidTemplates
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Additional field kind to accept without warnings")
	return cmd
}
