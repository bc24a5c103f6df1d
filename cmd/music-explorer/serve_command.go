package main

import (
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
	"github.com/justestif/go-spotify-music-explorer/internal/web"
	webfs "github.com/justestif/go-spotify-music-explorer/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, cfg *config.Config, logger zerolog.Logger) error {
				if addr != "" {
					cfg.Server.Addr = addr
				}

				// Create sub-filesystems for templates and static files
				templates, err := fs.Sub(webfs.TemplatesFS, "templates")
				if err != nil {
					return fmt.Errorf("creating templates filesystem: %w", err)
				}
				static, err := fs.Sub(webfs.StaticFS, "static")
				if err != nil {
					return fmt.Errorf("creating static filesystem: %w", err)
				}

				server, err := web.NewServer(web.ServerConfig{
					Addr:         cfg.Server.Addr,
					ReadTimeout:  cfg.Server.ReadTimeout,
					WriteTimeout: cfg.Server.WriteTimeout,
					APIRateLimit: cfg.Server.APIRateLimit,
					SimilarLimit: cfg.Recommend.Limit,
					TemplatesFS:  templates,
					StaticFS:     static,
					Logger:       logger,
				}, svc)
				if err != nil {
					return fmt.Errorf("creating server: %w", err)
				}

				return server.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
