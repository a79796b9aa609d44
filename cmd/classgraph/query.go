package main

import (
	"fmt"
	"os"
	"path/filepath"

	"classgraph/internal/analysis"
	"classgraph/internal/crawler"
	"classgraph/internal/extractor"
	"classgraph/internal/generator"
	"classgraph/internal/git"
	"classgraph/internal/index"
	"classgraph/internal/pipeline"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <class>",
	Short: "Print bases, members and inherited methods of a class",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		g, _ := loadResolved(ctx, store)
		n := findClass(g, args[0])
		if err := generator.WriteClassReport(os.Stdout, n, !color.NoColor); err != nil {
			logger.Fatalf("Failed to render class: %v", err)
		}
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "List unresolved bases, cycles and other hierarchy problems",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		g, _ := loadResolved(ctx, store)
		diags := analysis.Diagnose(g, nil)
		if len(diags) == 0 {
			fmt.Println("✅ No problems found.")
			return
		}
		if err := generator.DiagnosticsTable(diags).RenderText(os.Stdout, !color.NoColor); err != nil {
			logger.Fatalf("Failed to render diagnostics: %v", err)
		}
		for kind, count := range analysis.Summary(diags) {
			logger.WithField("kind", kind).Debugf("%d findings", count)
		}
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact [ref]",
	Short: "Show classes affected by uncommitted changes against a git ref",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref := "HEAD"
		if len(args) > 0 {
			ref = args[0]
		}

		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		g, info := loadResolved(ctx, store)

		changes, err := git.GetChangedFiles(ctx, info.Root, ref)
		if err != nil {
			logger.Fatalf("Failed to get git changes: %v", err)
		}
		exts := cfg.Project.Extensions
		if len(exts) == 0 {
			exts = crawler.DefaultExtensions
		}
		changes = git.FilterByExtension(changes, exts)
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		fmt.Println("🔍 Analyzing impact...")
		report, err := analysis.NewAnalyzer(g).AnalyzeImpact(info.Root, changes)
		if err != nil {
			logger.Fatalf("Analysis failed: %v", err)
		}
		fmt.Printf("  -> %d classes directly affected\n", len(report.DirectlyAffected))
		fmt.Printf("  -> %d classes indirectly affected (derived)\n\n", len(report.IndirectlyAffected))
		if err := generator.ImpactTable(report).RenderText(os.Stdout, !color.NoColor); err != nil {
			logger.Fatalf("Failed to render impact: %v", err)
		}
	},
}

var diagramCmd = &cobra.Command{
	Use:   "diagram [class]",
	Short: "Print a Mermaid class diagram",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		members, _ := cmd.Flags().GetBool("members")
		if !all && len(args) == 0 {
			logger.Fatal("Name a class or pass --all")
		}

		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		g, _ := loadResolved(ctx, store)
		gen := &generator.MermaidGenerator{Members: members}
		if all {
			fmt.Print(gen.GraphDiagram(g))
			return
		}
		fmt.Print(gen.ClassDiagram(findClass(g, args[0])))
	},
}

var derivedCmd = &cobra.Command{
	Use:   "derived <class>",
	Short: "List classes directly derived from a class, as recorded in the snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		names, err := store.DerivedOf(ctx, args[0])
		if err != nil {
			logger.Fatalf("Lookup failed: %v", err)
		}
		if len(names) == 0 {
			fmt.Printf("%s has no derived classes.\n", args[0])
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the stored graph when C++ files changed and report the impact",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		ref, _ := cmd.Flags().GetString("ref")

		ctx, cancel := commandContext()
		defer cancel()

		store, err := initStore()
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		root := cfg.Project.Root
		if info, err := store.Info(ctx); err == nil {
			root = info.Root
		}
		root, err = filepath.Abs(root)
		if err != nil {
			logger.Fatalf("Failed to resolve %s: %v", root, err)
		}

		ext, err := extractor.NewExtractor(extractor.LangCpp)
		if err != nil {
			logger.Fatalf("Failed to create extractor: %v", err)
		}
		cr := crawler.NewCrawler(ext, crawler.Options{
			Extensions: cfg.Project.Extensions,
			Ignored:    cfg.Project.Ignore,
			Workers:    cfg.Scan.Workers,
		}, logger)

		sync := pipeline.NewSync(store, index.NewIndexer(cr, newChain(), logger), root, logger)
		sync.Ref = ref
		sync.Out = os.Stdout
		sync.Extensions = cfg.Project.Extensions
		if len(sync.Extensions) == 0 {
			sync.Extensions = crawler.DefaultExtensions
		}

		res, err := sync.Run(ctx, force)
		if err != nil {
			logger.Fatalf("Update failed: %v", err)
		}
		if res.Impact != nil {
			if err := generator.ImpactTable(res.Impact).RenderText(os.Stdout, !color.NoColor); err != nil {
				logger.Fatalf("Failed to render impact: %v", err)
			}
		}
	},
}
