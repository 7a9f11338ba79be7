// Command preprocess turns an OSM extract into a contracted routing graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/ch"
	"github.com/azybler/chrouter/pkg/config"
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/logging"
	osmparser "github.com/azybler/chrouter/pkg/osm"
	"github.com/azybler/chrouter/pkg/weighting"
)

var (
	configPath string
	inputPath  string
	outputPath string
	bboxFlag   string
	singapore  bool
	kl         bool
	weightName string
	towerNodes bool
	compress   bool
)

var rootCmd = &cobra.Command{
	Use:           "preprocess",
	Short:         "Build a contraction hierarchy from an OSM PBF extract",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPreprocess,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().StringVar(&inputPath, "input", "", "Path to .osm.pbf file")
	rootCmd.Flags().StringVar(&outputPath, "output", "graph.bin", "Output binary graph file path")
	rootCmd.Flags().StringVar(&bboxFlag, "bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	rootCmd.Flags().BoolVar(&singapore, "singapore", false, "Shortcut for --bbox 1.15,103.6,1.48,104.1 (Singapore bounding box)")
	rootCmd.Flags().BoolVar(&kl, "kl", false, "Shortcut for --bbox 2.75,101.2,3.5,102.0 (Selangor + Kuala Lumpur bounding box)")
	rootCmd.Flags().StringVar(&weightName, "weighting", "", "Weighting to contract for: fastest or shortest")
	rootCmd.Flags().BoolVar(&towerNodes, "tower-nodes", true, "Bypass degree-two nodes before contraction")
	rootCmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the output file")
	rootCmd.MarkFlagRequired("input")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("weighting") {
		cfg.Preprocess.Weighting = weightName
	}
	if flags.Changed("tower-nodes") {
		cfg.Preprocess.TowerNodes = towerNodes
	}
	if flags.Changed("compress") {
		cfg.Preprocess.Compress = compress
	}
	return cfg, cfg.Validate()
}

// parseBBox resolves the region flags. An unset region yields a zero BBox.
func parseBBox(bbox string, singapore, kl bool) (osmparser.BBox, error) {
	switch {
	case kl:
		return osmparser.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}, nil
	case singapore:
		return osmparser.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}, nil
	case bbox == "":
		return osmparser.BBox{}, nil
	}
	var minLat, minLng, maxLat, maxLng float64
	if _, err := fmt.Sscanf(bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
		return osmparser.BBox{}, fmt.Errorf("invalid bbox format (expected minLat,minLng,maxLat,maxLng): %w", err)
	}
	if minLat >= maxLat || minLng >= maxLng {
		return osmparser.BBox{}, errors.New("invalid bbox: min must be below max")
	}
	return osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}, nil
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	box, err := parseBBox(bboxFlag, singapore, kl)
	if err != nil {
		return err
	}
	if !box.IsZero() {
		logger.Info("using bounding box filter",
			"min_lat", box.MinLat, "max_lat", box.MaxLat,
			"min_lng", box.MinLng, "max_lng", box.MaxLng)
	}

	start := time.Now()

	logger.Info("opening OSM file", "path", inputPath)
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	logger.Info("parsing OSM data")
	parseResult, err := osmparser.Parse(cmd.Context(), f, osmparser.ParseOptions{BBox: box, Logger: logger})
	if err != nil {
		return fmt.Errorf("parse OSM data: %w", err)
	}
	logger.Info("parsed", "edges", len(parseResult.Edges), "nodes", len(parseResult.NodeLat))

	logger.Info("building graph")
	g := graph.Build(parseResult)
	logger.Info("graph built", "nodes", g.NumNodes(), "edges", g.NumEdges())

	g, err = prepareGraph(g, cfg.Preprocess, logger)
	if err != nil {
		return err
	}

	logger.Info("writing binary", "path", outputPath, "compress", cfg.Preprocess.Compress)
	if err := graph.WriteBinary(outputPath, g, graph.WriteOptions{Compress: cfg.Preprocess.Compress}); err != nil {
		return fmt.Errorf("write binary: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	logger.Info("done",
		"elapsed", time.Since(start).Round(time.Second),
		"output", outputPath,
		"bytes", info.Size(),
		"fingerprint", graph.Fingerprint(g))
	return nil
}

// prepareGraph runs the steps between building and writing: component
// filtering, tower node bypass and contraction.
func prepareGraph(g *graph.Graph, cfg config.Preprocess, logger *slog.Logger) (*graph.Graph, error) {
	w, err := weighting.New(cfg.Weighting)
	if err != nil {
		return nil, err
	}

	if cfg.LargestComponent && g.NumNodes() > 0 {
		logger.Info("extracting largest connected component")
		componentNodes := graph.LargestComponent(g)
		logger.Info("largest component", "nodes", len(componentNodes), "of", g.NumNodes())
		g = graph.FilterToComponent(g, componentNodes)
		logger.Info("filtered graph", "nodes", g.NumNodes(), "edges", g.NumEdges())
	}

	if cfg.TowerNodes {
		tn, err := ch.NewTowerNodes(g, w)
		if err != nil {
			return nil, err
		}
		n := tn.Run()
		logger.Info("tower nodes bypassed", "shortcuts", n, "max_level", g.MaxLevel())
	}

	logger.Info("running contraction hierarchies", "weighting", w.Name())
	p, err := ch.NewPreparation(g, w,
		ch.WithScorer(ch.WeightedScorer{
			EdgeDifference:      cfg.Priority.EdgeDifference,
			OriginalEdges:       cfg.Priority.OriginalEdges,
			ContractedNeighbors: cfg.Priority.ContractedNeighbors,
			Level:               cfg.Priority.Level,
		}),
		ch.WithMaxSettled(cfg.MaxSettled),
		ch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	stats := p.Run()
	if stats.BaseEdgesBefore != stats.BaseEdgesAfter {
		return nil, fmt.Errorf("contraction changed base edges: %d -> %d", stats.BaseEdgesBefore, stats.BaseEdgesAfter)
	}
	return g, nil
}
