package cli

import (
	"os/signal"
	"syscall"

	"github.com/koustreak/biconnector/internal/middleware"
	"github.com/koustreak/biconnector/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions, rt runtime) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP front controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				opts.cfg.Server.ListenAddr = listen
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			return withApp(ctx, opts, rt, func(a *app) error {
				sc := a.cfg.Server
				srv := server.New(a.svc, server.Options{
					Logger:  a.log,
					Metrics: a.metrics,
					RateLimit: middleware.RateLimitConfig{
						RequestsPerSecond: sc.RateLimitRPS,
						Burst:             sc.RateLimitBurst,
					},
				})
				a.log.InfoWith("starting", map[string]interface{}{
					"addr":         sc.ListenAddr,
					"cache_driver": a.cfg.Cache.Driver,
					"version":      version,
				})
				return srv.ListenAndServe(ctx, sc.ListenAddr, sc.ShutdownTimeout)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides LISTEN_ADDR")
	return cmd
}
