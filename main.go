package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/api"
	"github.com/insightdelivered/bank-statement-parser/internal/config"
	"github.com/insightdelivered/bank-statement-parser/internal/extractor"
	"github.com/insightdelivered/bank-statement-parser/internal/logger"
	"github.com/insightdelivered/bank-statement-parser/internal/metrics"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
	"github.com/insightdelivered/bank-statement-parser/internal/pipeline"
	"github.com/insightdelivered/bank-statement-parser/internal/writer"
)

const version = "2.0.0"

type options struct {
	file             string
	dir              string
	year             int
	basePath         string
	includeNextMonth bool
	output           string
	monthly          bool
	summary          string
	xlsx             string
	dialect          string
	detectDuplicates bool
	validateOnly     bool
	serve            bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}

	var opts options
	flag.StringVar(&opts.file, "file", "", "Single PDF statement to process")
	flag.StringVar(&opts.dir, "dir", "", "Directory of PDF statements to process")
	flag.IntVar(&opts.year, "year", 0, "Process a complete year from <base-path>/<year>/")
	flag.StringVar(&opts.basePath, "base-path", cfg.Pipeline.BasePath, "Root directory holding year subdirectories")
	flag.BoolVar(&opts.includeNextMonth, "include-next-month", false, "Also read January statements of the following year")
	flag.StringVar(&opts.output, "output", "transactions.csv", "Output CSV file path")
	flag.BoolVar(&opts.monthly, "monthly", false, "Write one CSV file per month")
	flag.StringVar(&opts.summary, "summary", "", "Write a summary report to this path")
	flag.StringVar(&opts.xlsx, "xlsx", "", "Also write an Excel workbook to this path")
	flag.StringVar(&opts.dialect, "dialect", cfg.Parser.DefaultDialect, "Statement dialect: pnc or bbva (auto-detected if omitted)")
	flag.BoolVar(&opts.detectDuplicates, "detect-duplicates", false, "Flag same date, amount and merchant as duplicates")
	flag.BoolVar(&opts.validateOnly, "validate-only", false, "Only print the validation report")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.BoolVar(&opts.serve, "serve", false, "Start the HTTP API on SERVER_ADDR")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank Statement Parser
by Insight Delivered (QEA AutoLens)

Converts PNC Virtual Wallet and legacy BBVA statement PDFs into
categorised CSV files.

Usage:
  bank-statement-parser [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Process a single statement
  bank-statement-parser --file statement.pdf --output transactions.csv

  # Process a directory with monthly files and a summary
  bank-statement-parser --dir 2023/ --output 2023_all.csv --monthly --summary summary.txt

  # Process a complete year, including next January
  bank-statement-parser --year 2023 --include-next-month --output transactions.csv

  # Serve the API
  bank-statement-parser --serve
`)
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("bank-statement-parser v%s\n", version)
		os.Exit(0)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := logger.New(level)

	categorizer := parser.NewCategorizer(parser.CategorizerConfig{
		Provider: catalogProvider(cfg.Parser.CategoriesFile),
		Logger:   log,
	})

	var dialect models.Dialect
	if opts.dialect != "" {
		if dialect, err = parser.ParseDialect(opts.dialect); err != nil {
			fatalf("%v\n", err)
		}
	}

	dedup := pipeline.DedupPolicy(cfg.Pipeline.DedupPolicy)
	if opts.detectDuplicates {
		dedup = pipeline.DedupStrict
	}

	var m *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		m = metrics.New()
	}

	processor := pipeline.NewProcessor(pipeline.Options{
		Registry:  parser.DefaultRegistry(parser.Options{Categorizer: categorizer, Logger: log}),
		Validator: pipeline.NewValidator(decimal.NewFromInt(cfg.Pipeline.LargeAmountCeiling), dedup, log),
		Metrics:   m,
		Logger:    log,
		Workers:   cfg.Pipeline.Workers,
		Dialect:   dialect,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		if err := serve(ctx, cfg, processor, m, log); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if err := run(ctx, opts, processor, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func catalogProvider(path string) parser.CatalogProvider {
	if path == "" {
		return parser.DefaultCatalog()
	}
	return parser.FileCatalog{Path: path}
}

func serve(ctx context.Context, cfg *config.Config, processor *pipeline.Processor, m *metrics.Metrics, log zerolog.Logger) error {
	app := fiber.New(fiber.Config{
		AppName:               "bank-statement-parser",
		BodyLimit:             cfg.Server.MaxUploadBytes,
		DisableStartupMessage: true,
	})
	h := &api.Handler{Processor: processor, Metrics: m, Logger: log}
	h.Register(app)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Bool("metrics", m != nil).Msg("server listening")
	return app.Listen(cfg.Server.Addr)
}

func run(ctx context.Context, opts options, processor *pipeline.Processor, log zerolog.Logger) error {
	modes := 0
	for _, set := range []bool{opts.file != "", opts.dir != "", opts.year != 0} {
		if set {
			modes++
		}
	}
	switch {
	case modes == 0:
		flag.Usage()
		return errors.New("must specify one of --file, --dir or --year")
	case modes > 1:
		return errors.New("cannot combine --file, --dir and --year")
	}

	files, err := inputFiles(opts, log)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d PDF file(s) to process\n", len(files))

	docs := make([]pipeline.Document, 0, len(files))
	for _, path := range files {
		fmt.Printf("Processing: %s\n", filepath.Base(path))
		pages, err := extractor.ExtractText(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: %v\n", err)
			pages = nil
		}
		docs = append(docs, pipeline.Document{SourceFile: filepath.Base(path), Pages: pages})
	}

	batch := processor.ProcessBatch(ctx, docs)

	var summaries []*models.StatementSummary
	for _, doc := range batch.Documents {
		if doc.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", doc.SourceFile, doc.Err)
			continue
		}
		summaries = append(summaries, doc.Summary)
		fmt.Printf("  %s: %d transaction(s), account %s, period %s\n",
			doc.SourceFile, len(doc.Transactions), doc.Summary.AccountNumber, doc.Summary.Period())
	}

	txns := batch.Transactions
	if opts.year != 0 {
		var excluded int
		txns, excluded = pipeline.FilterByYear(txns, opts.year)
		if excluded > 0 {
			fmt.Printf("Filtered to %d transactions for year %d (excluded %d from other years)\n", len(txns), opts.year, excluded)
		}
	}

	if opts.validateOnly {
		fmt.Println("\nValidation Report:")
		fmt.Println(pipeline.Report(batch.Warnings))
		return nil
	}

	if len(txns) == 0 {
		return errors.New("no transactions found in any files")
	}
	fmt.Printf("\nTotal transactions extracted: %d\n", len(txns))

	outputPath, monthlyDir, summaryPath := opts.output, "", opts.summary
	if opts.monthly {
		monthlyDir = strings.TrimSuffix(opts.output, filepath.Ext(opts.output)) + "_monthly"
	}
	if opts.year != 0 {
		paths := pipeline.YearOutputPaths(opts.output, opts.year)
		outputPath, monthlyDir, summaryPath = paths.MainCSV, paths.MonthlyDir, paths.Summary
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	w := &writer.CSVWriter{}
	if err := w.WriteToFile(outputPath, txns); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("Exported transactions to: %s\n", outputPath)

	if monthlyDir != "" {
		paths, err := writer.WriteMonthly(monthlyDir, txns)
		if err != nil {
			return fmt.Errorf("monthly export failed: %w", err)
		}
		fmt.Printf("Exported %d monthly file(s) to: %s\n", len(paths), monthlyDir)
	}

	if summaryPath != "" && len(summaries) > 0 {
		if err := writer.WriteSummaryReportFile(summaryPath, summaries, txns); err != nil {
			return fmt.Errorf("summary report failed: %w", err)
		}
		fmt.Printf("Generated summary report: %s\n", summaryPath)
	}

	if opts.xlsx != "" {
		if err := writer.WriteWorkbookFile(opts.xlsx, txns); err != nil {
			return fmt.Errorf("workbook write failed: %w", err)
		}
		fmt.Printf("Exported workbook to: %s\n", opts.xlsx)
	}

	if len(batch.Warnings) > 0 {
		fmt.Println("\nValidation Report:")
		fmt.Println(pipeline.Report(batch.Warnings))
	}
	fmt.Println("\nProcessing completed successfully!")
	return nil
}

func inputFiles(opts options, log zerolog.Logger) ([]string, error) {
	switch {
	case opts.file != "":
		if _, err := os.Stat(opts.file); err != nil {
			return nil, fmt.Errorf("input file not found: %s", opts.file)
		}
		if ext := strings.ToLower(filepath.Ext(opts.file)); ext != ".pdf" {
			return nil, fmt.Errorf("expected .pdf file, got %q", ext)
		}
		return []string{opts.file}, nil

	case opts.dir != "":
		files, err := pipeline.ListPDFs(opts.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no PDF files found in %s", opts.dir)
		}
		return files, nil
	}

	files, err := pipeline.DiscoverYearFiles(opts.basePath, opts.year, opts.includeNextMonth, log)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found for year %d in %s", opts.year, opts.basePath)
	}
	if warnings := pipeline.YearCoverage(files, opts.year); len(warnings) > 0 {
		fmt.Fprintln(os.Stderr, "Year Coverage Warnings:")
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", w.Message)
		}
	}
	return files, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
