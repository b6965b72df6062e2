// Package main provides hookcode-server, a standalone server for run
// timelines.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hookcode/internal/config"
	"hookcode/internal/server"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hookcode-server: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		runsDir    string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:          "hookcode-server",
		Short:        "Serve agent run timelines over HTTP and WebSocket",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			srvCfg := server.Config{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				RunsDir:      cfg.RunsDir,
				ContextLines: cfg.ContextLines,
				Quiet:        cfg.Server.Quiet || quiet,
			}
			if host != "" {
				srvCfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				srvCfg.Port = port
			}
			if runsDir != "" {
				srvCfg.RunsDir = runsDir
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(srvCfg).ListenAndServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file (env: HOOKCODE_CONFIG, default: ~/.hookcode/config.toml)")
	flags.StringVar(&host, "host", "", "listen host")
	flags.IntVarP(&port, "port", "p", 0, "listen port (0 picks a free port)")
	flags.StringVar(&runsDir, "runs-dir", "", "directory scanned for *.jsonl runs (env: HOOKCODE_RUNS_DIR)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "disable request logging")

	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
