package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Candide-27/credit-risk-modeling/internal/config"
	"github.com/Candide-27/credit-risk-modeling/internal/exporter"
	"github.com/Candide-27/credit-risk-modeling/internal/infrastructure"
	"github.com/Candide-27/credit-risk-modeling/internal/risk"
	"github.com/Candide-27/credit-risk-modeling/internal/services"
	"github.com/Candide-27/credit-risk-modeling/internal/synthetic"
	"github.com/Candide-27/credit-risk-modeling/pkg/contracts"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("ECL report failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	input      string
	loans      int
	seed       uint64
	scenario   string
	lifetime   int
	outputDir  string
	formats    string
	bom        bool
	version    bool
	strict     bool
	strictSet  bool
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("ecl-report", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file (defaults to ECL_CONFIG or config.yaml)")
	fs.StringVar(&opts.input, "input", "", "portfolio file (.csv or .xlsx); a synthetic portfolio is generated when empty")
	fs.IntVar(&opts.loans, "loans", synthetic.DefaultLoans, "number of synthetic loans")
	fs.Uint64Var(&opts.seed, "seed", synthetic.DefaultSeed, "seed of the synthetic portfolio")
	fs.StringVar(&opts.scenario, "scenario", "", `scenario name, or "all" for every configured scenario (defaults to the configured one)`)
	fs.IntVar(&opts.lifetime, "lifetime", 0, "loan lifetime in periods (defaults to the configured one)")
	fs.StringVar(&opts.outputDir, "out", "", "output directory for reports (defaults to data/reports)")
	fs.StringVar(&opts.formats, "format", "csv,xlsx", "comma separated output formats: csv, xlsx, json")
	fs.BoolVar(&opts.bom, "bom", false, "prefix CSV files with a UTF-8 byte order mark")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	fs.BoolVar(&opts.strict, "strict", false, "validate loans and lookup coverage before calculating")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "strict" {
			opts.strictSet = true
		}
	})
	return opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// scenarioNames maps the -scenario flag onto CalculateScenarios names
func scenarioNames(flagValue, defaultName string) []string {
	switch {
	case strings.EqualFold(flagValue, "all"):
		return nil
	case flagValue == "":
		return []string{defaultName}
	default:
		return []string{flagValue}
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.VersionString("ecl-report"))
		return nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger(os.Stderr, cfg.Logging)
	slog.SetDefault(logger)
	logger = infrastructure.WithComponent(logger, "ecl-report")

	formats, err := exporter.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	if opts.outputDir == "" {
		opts.outputDir = cfg.Paths.ReportsDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	svc := services.NewECLService(cfg, logger)

	var portfolio risk.Portfolio
	if opts.input != "" {
		portfolio, err = svc.LoadPortfolio(ctx, opts.input)
		if err != nil {
			return err
		}
	} else {
		genOpts := synthetic.DefaultOptions()
		genOpts.Loans = opts.loans
		genOpts.Seed = opts.seed
		portfolio, err = synthetic.Generate(genOpts)
		if err != nil {
			return fmt.Errorf("generate portfolio: %w", err)
		}
		logger.InfoContext(ctx, "Generated synthetic portfolio",
			slog.Int("loans", len(portfolio)),
			slog.Uint64("seed", opts.seed))
	}

	calcOpts := services.CalculateOptions{LoanLifetime: opts.lifetime}
	if opts.strictSet {
		calcOpts.Strict = &opts.strict
	}

	results, err := svc.CalculateScenarios(ctx, portfolio, scenarioNames(opts.scenario, svc.DefaultScenario()), calcOpts)
	if err != nil {
		return err
	}

	exp := exporter.New(opts.outputDir, logger, formats...)
	exp.SetBOM(opts.bom)

	written, err := exp.Export(results)
	if err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	printSummary(stdout, results)

	fmt.Fprintln(stdout, "Files written:")
	for _, path := range written {
		fmt.Fprintf(stdout, "  %s\n", path)
	}
	return nil
}

func printSummary(w io.Writer, results []*risk.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "\n=== SCENARIO %s ===\n", strings.ToUpper(r.Scenario.Name))
		fmt.Fprintf(w, "Loans: %d  Lifetime: %d  Duration: %s\n",
			len(r.Portfolio), r.LoanLifetime, r.Duration.Round(time.Millisecond))
		exporter.RenderStageTable(w, r.Summary)

		if n := len(r.Loss.Dropped); n > 0 {
			fmt.Fprintf(w, "Dropped loans (no stage): %d\n", n)
		}
		if n := len(r.Loss.Unresolved); n > 0 {
			fmt.Fprintf(w, "Unresolved ECL: %d loans\n", n)
		}
		if !r.Coverage.Complete() {
			fmt.Fprintln(w, "Warning: some loans reference ratings or collateral types missing from the lookup tables")
		}
	}
	fmt.Fprintln(w)
}
