package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/page"
)

func newPagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List, inspect, edit and reorder pages",
	}
	cmd.AddCommand(
		newPagesListCmd(a),
		newPagesShowCmd(a),
		newPagesCountCmd(a),
		newPagesDeleteCmd(a),
		newPagesMoveCmd(a),
		newPagesCloneCmd(a),
		newPagesEditCmd(a),
	)
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid page id %q", raw)
	}
	return id, nil
}

func newPagesListCmd(a *app) *cobra.Command {
	var (
		params page.ListParams
		sort   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages in tree order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.Sort = page.Sort(sort)
			switch params.Sort {
			case "", page.SortDefault, page.SortDateAsc, page.SortDateDesc:
			default:
				return fmt.Errorf("unknown sort %q", sort)
			}
			if params.PageSize == 0 {
				params.PageSize = page.AllPagesSize
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			list, meta, err := c.Pages(cmd.Context(), params)
			if err != nil {
				return err
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), client.Response[[]page.Short]{Data: list, Meta: meta})
			}
			total := len(list)
			if meta != nil {
				total = meta.Total
			}
			r, err := a.renderer()
			if err != nil {
				return err
			}
			return r.Pages(cmd.OutOrStdout(), list, total)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&params.Query, "search", "", "Filter by title or path")
	flags.StringVar(&params.Template, "template", "", "Only pages using this template")
	flags.BoolVar(&params.WithChildren, "with-children", false, "Only pages that have children")
	flags.IntVar(&params.PageNumber, "page", 1, "Page number")
	flags.IntVar(&params.PageSize, "size", 0, "Page size (all pages when 0)")
	flags.StringVar(&sort, "sort", string(page.SortDefault), "Sort order: default, date_desc or date_asc")
	return cmd
}

func newPagesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a page with its template values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			p, err := c.Page(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), p)
			}
			r, err := a.renderer()
			if err != nil {
				return err
			}
			return r.Page(cmd.OutOrStdout(), p)
		},
	}
}

func newPagesCountCmd(a *app) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			count, err := c.Count(cmd.Context(), templateID)
			if err != nil {
				return err
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), page.Count{Count: count})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
			return err
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "Only pages using this template")
	return cmd
}

func newPagesDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a page after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			deleted, err := a.orchestrator(cmd, c, yes).Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.ErrOrStderr(), "Page was not deleted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newPagesMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <up|down>",
		Short: "Move a page among its siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			direction := client.Direction(args[1])
			if !direction.Valid() {
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			moved, err := a.orchestrator(cmd, c, true).Move(cmd.Context(), id, direction)
			if err != nil {
				return err
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), page.Success{Success: moved})
			}
			if !moved {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d cannot move %s\n", id, direction)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d moved %s\n", id, direction)
			return nil
		},
	}
}

func newPagesCloneCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clone <id>",
		Short: "Clone a page after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			clone, err := a.orchestrator(cmd, c, yes).Clone(cmd.Context(), id)
			if err != nil {
				return err
			}
			if clone == nil {
				return nil
			}
			if a.wantsJSON() {
				return a.writeJSON(cmd.OutOrStdout(), clone)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created page %d %q at %s\n", clone.ID, clone.Title, clone.Path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
