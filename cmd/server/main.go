// Command server answers route queries over a preprocessed graph.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azybler/chrouter/pkg/api"
	"github.com/azybler/chrouter/pkg/config"
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/logging"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

var (
	configPath string
	graphPath  string
	port       int
	corsOrigin string
	weightName string
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Serve shortest path queries over HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().StringVar(&graphPath, "graph", "graph.bin", "Path to preprocessed graph binary")
	rootCmd.Flags().IntVar(&port, "port", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "CORS allowed origin (empty = same-origin)")
	rootCmd.Flags().StringVar(&weightName, "weighting", "", "Weighting the graph was contracted for")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Addr = fmt.Sprintf(":%d", port)
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigin = corsOrigin
	}
	if flags.Changed("weighting") {
		cfg.Preprocess.Weighting = weightName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	start := time.Now()

	logger.Info("loading graph", "path", graphPath)
	g, err := graph.ReadBinary(graphPath)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	logger.Info("graph loaded",
		"nodes", g.NumNodes(),
		"base_edges", g.NumBaseEdges(),
		"shortcuts", g.NumShortcuts())

	w, err := weighting.New(cfg.Preprocess.Weighting)
	if err != nil {
		return err
	}

	logger.Info("building spatial index")
	engine, err := routing.NewEngine(g, w, cfg.Server.MaxSnapMeters)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	stats := api.NewStats(g, w.Name())
	logger.Info("ready",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"fingerprint", stats.Fingerprint)

	handlers := api.NewHandlers(engine, stats, logger)
	srv := api.NewServer(api.ConfigFrom(cfg.Server, logger), handlers)

	return api.ListenAndServe(srv, logger)
}
