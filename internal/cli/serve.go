package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/textart/internal/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	maxBodyMB int
	maxDim    int
	timeout   time.Duration
	noCache   bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the text art HTTP API",
		Long: `Run an HTTP server that converts uploaded images to text art.

  POST /v1/textart   image bytes in, text/plain, application/json or image/png out
  GET  /v1/palettes  built-in palettes
  GET  /v1/version   build information
  GET  /healthz      liveness probe`,
		Example: `  textart serve --addr :9000
  curl --data-binary @photo.png 'localhost:9000/v1/textart?width=80'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.serverConfig(opts, cmd.Flags().Changed)

			runner, err := c.newRunner(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			c.status.info("Listening on %s", cfg.Addr)
			c.status.detail("cache: %s, body limit: %d MiB, max dimension: %d", c.cacheLabel(opts.noCache), cfg.MaxBodyBytes>>20, cfg.MaxDimension)
			return server.New(cfg, runner, c.Logger).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultConfig().Addr, "listen address")
	cmd.Flags().IntVar(&opts.maxBodyMB, "max-body-mb", server.DefaultMaxBodyBytes>>20, "largest accepted upload in MiB")
	cmd.Flags().IntVar(&opts.maxDim, "max-dimension", server.DefaultConfig().MaxDimension, "largest width, row count or max_dimension a request may ask for")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", server.DefaultConfig().RequestTimeout, "per-request conversion deadline")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// serverConfig merges the [server] config section with explicitly set flags.
func (c *CLI) serverConfig(opts serveOpts, changed func(string) bool) server.Config {
	cfg := server.DefaultConfig()
	file := c.Config.Server

	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.MaxBodyMB > 0 {
		cfg.MaxBodyBytes = int64(file.MaxBodyMB) << 20
	}
	if file.MaxDimension > 0 {
		cfg.MaxDimension = file.MaxDimension
	}
	if file.TimeoutSecond > 0 {
		cfg.RequestTimeout = time.Duration(file.TimeoutSecond) * time.Second
	}

	if changed("addr") {
		cfg.Addr = opts.addr
	}
	if changed("max-body-mb") && opts.maxBodyMB > 0 {
		cfg.MaxBodyBytes = int64(opts.maxBodyMB) << 20
	}
	if changed("max-dimension") && opts.maxDim > 0 {
		cfg.MaxDimension = opts.maxDim
	}
	if changed("timeout") && opts.timeout > 0 {
		cfg.RequestTimeout = opts.timeout
	}
	return cfg
}

func (c *CLI) cacheLabel(noCache bool) string {
	if noCache {
		return cacheNone
	}
	return c.Config.Cache.Backend
}
