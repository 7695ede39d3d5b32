package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ozitag/tager-admin-pages/internal/server"
	"github.com/ozitag/tager-admin-pages/internal/store"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin pages API backed by SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			ctx := cmd.Context()
			logger := a.logger(cmd.ErrOrStderr())

			catalog := template.NewCatalog()
			if cfg.Templates != "" {
				loaded, err := loadCatalog(cfg.Templates)
				if err != nil {
					return err
				}
				catalog = loaded
			}

			st, err := store.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			srv, err := server.New(ctx, st, catalog,
				server.WithLogger(logger),
				server.WithSanitizer(fields.NewSanitizer(nil)),
				server.WithUploadDir(cfg.Uploads),
				server.WithInfo(page.Info{SEOKeywordsEnabled: cfg.SEOKeywords}),
			)
			if err != nil {
				return err
			}

			httpServer := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}
			logger.Info("listening",
				slog.String("addr", cfg.Addr),
				slog.String("database", cfg.Database),
				slog.Int("templates", catalog.Len()),
			)
			if err := server.ListenAndServe(ctx, httpServer, cfg.ShutdownGrace); err != nil {
				return err
			}
			logger.Info("stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func loadCatalog(dir string) (*template.Catalog, error) {
	validator, err := template.NewValidator(template.WithRegistryKinds(fields.DefaultEngine().Registry()))
	if err != nil {
		return nil, err
	}
	catalog, err := template.LoadFS(os.DirFS(dir), template.WithValidator(validator))
	if err != nil {
		return nil, fmt.Errorf("load templates from %s: %w", dir, err)
	}
	return catalog, nil
}
