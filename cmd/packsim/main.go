// Command packsim simulates opening collectible-card booster packs and
// tracks the resulting collection and statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/boosterlab/packsim/internal/catalog"
	"github.com/boosterlab/packsim/internal/charts"
	"github.com/boosterlab/packsim/internal/config"
	"github.com/boosterlab/packsim/internal/export"
	"github.com/boosterlab/packsim/internal/loader"
	"github.com/boosterlab/packsim/internal/pack"
	"github.com/boosterlab/packsim/internal/session"
	"github.com/boosterlab/packsim/internal/storage"
)

var (
	configPath    = flag.String("config", "", "Config file path (default: ~/.packsim/config.toml)")
	catalogSource = flag.String("catalog", "", "Catalog JSON file path or URL (overrides config)")
	dbPath        = flag.String("db", "", "SQLite database path (overrides config)")
	templateName  = flag.String("template", "", "Pack template: classic or modern (overrides config)")
	uniquePulls   = flag.Bool("unique", false, "Force in-pack uniqueness on")
	seed          = flag.Int64("seed", 0, "Random seed (0 = time-seeded)")
	debugMode     = flag.Bool("debug-mode", false, "Enable verbose debug logging")
	debugShort    = flag.Bool("d", false, "Enable debug logging (shorthand for -debug-mode)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: packsim [flags] <command> [args]

Commands:
  open [-n packs]          Open one or more packs
  collection [-rarity r]   Show the collection, optionally one rarity
  completion [-rarities l] Show completion for a comma-separated rarity list
  stats                    Show aggregate statistics
  export [-format f] [-out path] [-what collection|stats]
                           Export collection or stats as csv/json
  chart [-out path]        Render a rarity distribution chart (HTML)
  backup [-password p]     Back up the database, optionally encrypted
  watch                    Watch the catalog file and reload it on change
  reset -force             Clear collection and stats

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debugMode || *debugShort {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlagOverrides(cfg)

	if err := run(cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cfg *config.Config) {
	if *catalogSource != "" {
		cfg.Catalog.Source = *catalogSource
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *templateName != "" {
		cfg.Packs.Template = *templateName
		cfg.Packs.Custom = nil
	}
	if *uniquePulls {
		t := true
		cfg.Packs.UniquePulls = &t
	}
	if *seed != 0 {
		cfg.Packs.Seed = *seed
	}
}

func run(cfg *config.Config, logger *slog.Logger, command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "open":
		return cmdOpen(ctx, cfg, logger, args)
	case "collection":
		return cmdCollection(ctx, cfg, logger, args)
	case "completion":
		return cmdCompletion(ctx, cfg, logger, args)
	case "stats":
		return cmdStats(ctx, cfg, logger)
	case "export":
		return cmdExport(ctx, cfg, logger, args)
	case "chart":
		return cmdChart(ctx, cfg, logger, args)
	case "backup":
		return cmdBackup(cfg, args)
	case "watch":
		return cmdWatch(ctx, cfg, logger)
	case "reset":
		return cmdReset(ctx, cfg, logger, args)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// openSession builds the session from config: database, store, template and
// (when requested) the catalog.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, needCatalog bool) (*session.Session, *storage.DB, error) {
	tmpl, err := cfg.Template()
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Storage.DBPath
	if path == "" {
		path, err = config.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	var rng *rand.Rand
	if cfg.Packs.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Packs.Seed))
	}

	sess, err := session.New(ctx, session.Options{
		Template: tmpl,
		Rand:     rng,
		Store:    storage.NewStore(db),
		Logger:   logger,
	})
	if err != nil {
		closeDB(db)
		return nil, nil, err
	}

	if needCatalog {
		if cfg.Catalog.Source == "" {
			closeDB(db)
			return nil, nil, fmt.Errorf("no catalog source configured (use -catalog or config.toml)")
		}
		cat, err := loader.New().Load(ctx, cfg.Catalog.Source)
		if err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		sess.LoadCatalog(cat)
	}

	return sess, db, nil
}

func closeDB(db *storage.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func cmdOpen(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	count := fs.Int("n", 1, "Number of packs to open")
	_ = fs.Parse(args)

	sess, db, err := openSession(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	hitStart := firstHitSlot(sess.Template())
	for i := 0; i < *count; i++ {
		pulls, err := sess.OpenPack(ctx)
		if err != nil {
			return fmt.Errorf("failed to open pack: %w", err)
		}

		fmt.Printf("Pack %d:\n", i+1)
		for _, pull := range pulls {
			marker := " "
			if pull.Slot >= hitStart {
				marker = "*"
			}
			fmt.Printf("  %s [%2d] %-30s #%-6s %s\n",
				marker, pull.Slot, pull.Card.Name, pull.Card.Number, pull.Card.Rarity)
		}
	}

	return nil
}

// firstHitSlot returns the index of the first weighted slot, so the CLI can
// mark late hit slots the way the reveal UI would.
func firstHitSlot(tmpl pack.Template) int {
	for i, slot := range tmpl.Slots {
		if !slot.Fixed() {
			return i
		}
	}
	return len(tmpl.Slots)
}

func cmdCollection(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("collection", flag.ExitOnError)
	rarity := fs.String("rarity", "", "Filter by rarity")
	_ = fs.Parse(args)

	sess, db, err := openSession(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	entries, malformed := sess.CollectionView(*rarity)
	for _, entry := range entries {
		fmt.Printf("%4dx #%-6s %-30s %s\n", entry.Count, entry.Number, entry.Name, entry.Rarity)
	}
	fmt.Printf("%d unique cards\n", len(entries))
	if malformed != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", malformed)
	}

	return nil
}

func cmdCompletion(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)
	raritiesFlag := fs.String("rarities", "", "Comma-separated rarity list (empty = all)")
	_ = fs.Parse(args)

	sess, db, err := openSession(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	rarities := make(map[string]bool)
	if *raritiesFlag != "" {
		for _, rarity := range strings.Split(*raritiesFlag, ",") {
			rarities[strings.TrimSpace(rarity)] = true
		}
	}

	owned, total := sess.Completion(rarities)
	if total == 0 {
		fmt.Println("No applicable cards")
		return nil
	}
	fmt.Printf("%d / %d (%.1f%%)\n", owned, total, 100*float64(owned)/float64(total))
	return nil
}

func cmdStats(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	sess, db, err := openSession(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	s := sess.Stats()
	fmt.Printf("Packs opened: %d\n", s.PacksOpened)
	fmt.Printf("Total cards:  %d\n", s.TotalCards)
	for _, point := range charts.RarityDistribution(s) {
		fmt.Printf("  %-30s %d\n", point.Label, int(point.Value))
	}
	return nil
}

func cmdExport(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "Export format: csv or json")
	out := fs.String("out", "", "Output file (default: generated name, - for stdout)")
	what := fs.String("what", "collection", "What to export: collection or stats")
	overwrite := fs.Bool("overwrite", false, "Overwrite existing output file")
	_ = fs.Parse(args)

	sess, db, err := openSession(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	f := export.Format(*format)

	if *out == "-" {
		switch *what {
		case "collection":
			entries, _ := sess.CollectionView("")
			return export.WriteCollection(os.Stdout, f, entries, true)
		case "stats":
			return export.WriteStats(os.Stdout, f, sess.Stats(), true)
		default:
			return fmt.Errorf("unknown export target: %s", *what)
		}
	}

	path := *out
	if path == "" {
		path = export.GenerateFilename(*what, f)
	}
	exporter := export.NewExporter(export.Options{
		Format:     f,
		FilePath:   path,
		PrettyJSON: true,
		Overwrite:  *overwrite,
	})

	switch *what {
	case "collection":
		entries, malformed := sess.CollectionView("")
		if malformed != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", malformed)
		}
		if err := exporter.Collection(entries); err != nil {
			return err
		}
	case "stats":
		if err := exporter.Stats(sess.Stats()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export target: %s", *what)
	}

	fmt.Printf("Exported %s to %s\n", *what, path)
	return nil
}

func cmdChart(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	out := fs.String("out", "rarity_distribution.html", "Output HTML file")
	_ = fs.Parse(args)

	sess, db, err := openSession(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	chartConfig := charts.DefaultChartConfig()
	chartConfig.Title = "Pulls by rarity"
	if err := charts.RenderRarityBar(sess.Stats(), chartConfig, *out); err != nil {
		return err
	}

	fmt.Printf("Chart written to %s\n", *out)
	return nil
}

func cmdBackup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	password := fs.String("password", "", "Encrypt the backup with this password")
	dir := fs.String("dir", "", "Backup directory (default: next to the database)")
	_ = fs.Parse(args)

	path := cfg.Storage.DBPath
	if path == "" {
		var err error
		path, err = config.DefaultDBPath()
		if err != nil {
			return err
		}
	}

	backupConfig := storage.DefaultBackupConfig()
	backupConfig.BackupDir = *dir
	if *password != "" {
		backupConfig.Encryption = storage.DefaultEncryptionConfig(*password)
	}

	backupPath, err := storage.NewBackupManager(path).Backup(backupConfig)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("Backup written to %s\n", backupPath)
	return nil
}

// cmdWatch keeps the session's catalog in sync with its source file until
// interrupted. Remote catalogs cannot be watched.
func cmdWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	source := cfg.Catalog.Source
	if source == "" {
		return fmt.Errorf("no catalog source configured (use -catalog or config.toml)")
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fmt.Errorf("watch requires a file-backed catalog, got URL %s", source)
	}

	sess, db, err := openSession(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	watcher, err := loader.NewWatcher(source, loader.New(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("Error closing watcher: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", source)
	err = watcher.Run(ctx, func(cat *catalog.Catalog) {
		sess.LoadCatalog(cat)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func cmdReset(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	force := fs.Bool("force", false, "Confirm clearing collection and stats")
	_ = fs.Parse(args)

	if !*force {
		return fmt.Errorf("reset clears the collection and stats; re-run with -force")
	}

	sess, db, err := openSession(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := sess.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("Collection and stats cleared")
	return nil
}
