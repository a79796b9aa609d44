package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"classgraph/internal/analysis"
	"classgraph/internal/config"
	"classgraph/internal/crawler"
	"classgraph/internal/extractor"
	"classgraph/internal/generator"
	"classgraph/internal/graph"
	"classgraph/internal/index"
	"classgraph/internal/logging"
	"classgraph/internal/resolver"
	"classgraph/internal/storage"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "classgraph",
		Short: "C++ class hierarchy indexer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setup()
		},
	}
	configPath string
	dbPath     string
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "classgraph.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the graph database (SQLite), overrides storage.path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	scanCmd.Flags().String("report", "", "Write a JSON run report to this path")
	diagramCmd.Flags().Bool("all", false, "Draw every class instead of one hierarchy")
	diagramCmd.Flags().Bool("members", false, "List member functions in each class box")
	updateCmd.Flags().Bool("force", false, "Rebuild even when git reports no changes")
	updateCmd.Flags().String("ref", "HEAD", "Git ref to diff the working tree against")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(derivedCmd)
	rootCmd.AddCommand(updateCmd)
}

func setup() {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if noColor {
		color.NoColor = true
	}
	logger = logging.New(cfg.Log.Level, verbose)
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// initStore opens the SQLite database named by the config.
func initStore() (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(cfg.Storage.Path)
}

func newChain() *resolver.ResolverChain {
	return resolver.NewDefaultChain(logger, cfg.Resolve.Heuristic)
}

// loadResolved reads the last snapshot and resolves it again.
func loadResolved(ctx context.Context, store storage.GraphStore) (*graph.Graph, storage.SnapshotInfo) {
	info, err := store.Info(ctx)
	if err != nil {
		logger.Fatalf("No graph available, run 'classgraph scan' first: %v", err)
	}
	g, err := store.LoadGraph(ctx)
	if err != nil {
		logger.Fatalf("Failed to load graph: %v", err)
	}
	for _, st := range newChain().Run(g) {
		if st.Err != nil {
			logger.Fatalf("Resolver %s failed: %v", st.Resolver, st.Err)
		}
	}
	return g, info
}

func findClass(g *graph.Graph, name string) *graph.ClassNode {
	n, err := g.Find(name)
	if err != nil {
		logger.Fatalf("Class %s: %v", name, err)
	}
	return n
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a C++ project and store its class graph",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.Project.Root
		if len(args) > 0 {
			path = args[0]
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			logger.Fatalf("Failed to resolve %s: %v", path, err)
		}
		reportPath, _ := cmd.Flags().GetString("report")

		ctx, cancel := commandContext()
		defer cancel()

		fmt.Printf("📂 Scanning directory: %s\n", absPath)

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		ext, err := extractor.NewExtractor(extractor.LangCpp)
		if err != nil {
			logger.Fatalf("Failed to create extractor: %v", err)
		}
		cr := crawler.NewCrawler(ext, crawler.Options{
			Extensions: cfg.Project.Extensions,
			Ignored:    cfg.Project.Ignore,
			Workers:    cfg.Scan.Workers,
		}, logger)
		idx := index.NewIndexer(cr, newChain(), logger)

		report := generator.NewRunReport(absPath)

		fmt.Println("🚀 Building class graph...")
		start := time.Now()
		h := report.BeginStage("build")
		res, err := idx.BuildGraph(ctx, absPath)
		if err != nil {
			report.EndStage(h, nil, err)
			saveReport(report, reportPath)
			logger.Fatalf("Build failed: %v", err)
		}
		report.EndStage(h, map[string]int{
			"files":     res.Scan.Files,
			"extracted": res.Scan.Extracted,
			"failed":    res.Scan.Failed,
			"classes":   res.Graph.Len(),
		}, nil)
		report.AddResolverStages(res.Stages)
		fmt.Printf("✅ Graph built in %v. %d files, %d classes.\n", time.Since(start).Round(time.Millisecond), res.Scan.Extracted, res.Graph.Len())
		if res.Scan.Failed > 0 {
			fmt.Printf("⚠️  %d files could not be parsed.\n", res.Scan.Failed)
		}
		if err := generator.StagesTable(res.Stages).RenderText(os.Stdout, !color.NoColor); err != nil {
			logger.Fatalf("Failed to render stages: %v", err)
		}

		diags := analysis.Diagnose(res.Graph, nil)
		report.AddDiagnostics(diags)
		if len(diags) > 0 {
			fmt.Printf("🔍 %d diagnostics, see 'classgraph diagnose'.\n", len(diags))
		}

		fmt.Println("💾 Saving to local database...")
		h = report.BeginStage("store")
		err = store.SaveGraph(ctx, res.Graph, absPath)
		report.EndStage(h, map[string]int{"edges": res.Graph.EdgeCount()}, err)
		saveReport(report, reportPath)
		if err != nil {
			logger.Fatalf("Failed to save graph: %v", err)
		}

		fmt.Printf("🎉 Scan complete! Database: %s\n", cfg.Storage.Path)
	},
}

func saveReport(r *generator.RunReport, path string) {
	if path == "" {
		return
	}
	if err := r.Save(path); err != nil {
		logger.WithError(err).Warn("failed to write run report")
		return
	}
	fmt.Printf("📝 Run report written to %s\n", path)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the stored snapshot contains",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		g, info := loadResolved(ctx, store)
		fmt.Printf("📂 Root:  %s\n", info.Root)
		fmt.Printf("🕒 Saved: %s\n\n", info.SavedAt.Local().Format(time.RFC1123))
		if err := generator.MetricsTable(g.Metrics()).RenderText(os.Stdout, !color.NoColor); err != nil {
			logger.Fatalf("Failed to render metrics: %v", err)
		}
	},
}
