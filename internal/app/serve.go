package app

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP admin API",
		Long: `Serve the admin API under /api, the site's images under /assets and
the whole site under /docs. When refresh.schedule is set in the config
(a cron expression such as "0 4 * * *"), repository statistics are
refreshed on that schedule while the server runs.

Examples:
  stashctl serve
  stashctl serve --port 8080
  stashctl serve --host 0.0.0.0 --origin https://admin.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				cfg.Serve.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Serve.Port = port
			}

			opts := []server.Option{server.WithLogger(logger)}
			if len(origins) > 0 {
				opts = append(opts, server.WithAllowedOrigins(origins...))
			}
			srv := server.New(newService(), opts...)

			if cfg.Refresh.Schedule != "" {
				if err := srv.StartSchedule(cfg.Refresh.Schedule); err != nil {
					return fmt.Errorf("refresh schedule: %w", err)
				}
				ok("Refreshing statistics on schedule %q", cfg.Refresh.Schedule)
			}

			addr := cfg.Serve.Addr()
			ok("Admin API on http://%s/api", displayAddr(addr))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "Allowed CORS origin (repeatable)")
	return cmd
}

// displayAddr turns a wildcard listen address into one a browser can open.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return addr
	}
	return net.JoinHostPort(host, port)
}
