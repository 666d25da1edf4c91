// Command fraudppr is the headless CLI front-end for the personalized
// PageRank fraud-detection engine. It chains a sequence of subcommands
// (ingest, run, add-edges, topk, export) against a single in-process
// facade.Facade — there is no persisted state between invocations, per
// spec.md §6, so a full pipeline is expressed as one command line, e.g.:
//
//	fraudppr -seeds 10,20 ingest transactions.csv run topk 25
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/config"
	"github.com/kestrelsec/fraudppr/pkg/facade"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
	"github.com/kestrelsec/fraudppr/pkg/ingest"
	"github.com/kestrelsec/fraudppr/pkg/ppr"
	"github.com/kestrelsec/fraudppr/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Path to config.yaml (defaults to the XDG config dir)")

	alpha := flag.Float64("alpha", 0, "Teleport probability in (0,1); 0 uses the config default")
	algorithm := flag.String("algorithm", "", "Solver: power or monte_carlo; empty uses the config default")
	weighted := flag.Bool("weighted", true, "Use edge weights; false coerces every weight to 1")
	maxIter := flag.Int("max-iter", 0, "Power solver max iterations; 0 uses the config default")
	tol := flag.Float64("tol", 0, "Power solver convergence tolerance; 0 uses the config default")
	numWalks := flag.Int("num-walks", 0, "Monte Carlo walk count; 0 uses the config default")
	maxSteps := flag.Int("max-steps", 0, "Monte Carlo max steps per walk; 0 uses the config default")
	rngSeed := flag.Int64("seed", 0, "Monte Carlo RNG seed")
	seedList := flag.String("seeds", "", "Comma/space separated seed node IDs for personalization")
	format := flag.String("format", "", "Output format for topk/export: csv or json; empty uses the config default")

	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fraudppr: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "fraudppr: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("fraudppr %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fraudppr: loading config: %v\n", err)
		os.Exit(1)
	}

	runArgs := runArgs{
		alpha:     resolveFloat(*alpha, cfg.Solver.Alpha),
		algorithm: resolveAlgorithm(*algorithm, cfg.CLI.DefaultAlgorithm),
		weighted:  resolveWeighted(*weighted, explicit["weighted"], cfg.IsWeighted()),
		maxIter:   resolveInt(*maxIter, cfg.Solver.MaxIter),
		tol:       resolveFloat(*tol, cfg.Solver.Tol),
		numWalks:  resolveInt(*numWalks, cfg.Solver.NumWalks),
		maxSteps:  resolveInt(*maxSteps, cfg.Solver.MaxSteps),
		rngSeed:   *rngSeed,
		seeds:     ingest.ParseSeeds(*seedList),
		format:    resolveFormat(*format, cfg.CLI.OutputFormat),
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	f := facade.New()
	if err := runPipeline(f, args, runArgs); err != nil {
		fmt.Fprintf(os.Stderr, "fraudppr: %v\n", err)
		os.Exit(1)
	}
}

// runArgs bundles the flag-derived defaults threaded through every `run`
// subcommand invocation in the chain.
type runArgs struct {
	alpha     float64
	algorithm ppr.Algorithm
	weighted  bool
	maxIter   int
	tol       float64
	numWalks  int
	maxSteps  int
	rngSeed   int64
	seeds     []int64
	format    string
}

// runPipeline walks args as an ordered chain of subcommands against a
// single facade, printing a short human-readable summary after each step —
// there is no other persisted state to inspect between them.
func runPipeline(f *facade.Facade, args []string, ra runArgs) error {
	for len(args) > 0 {
		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "ingest":
			if len(args) < 1 {
				return fmt.Errorf("ingest requires a file argument (or - for manual entry)")
			}
			path := args[0]
			args = args[1:]
			if err := doIngest(f, path, ra.seeds); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

		case "add-edges":
			if len(args) < 1 {
				return fmt.Errorf("add-edges requires a file argument (or - for manual entry)")
			}
			path := args[0]
			args = args[1:]
			if err := doAddEdges(f, path); err != nil {
				return fmt.Errorf("add-edges: %w", err)
			}

		case "run":
			if err := doRun(f, ra); err != nil {
				return fmt.Errorf("run: %w", err)
			}

		case "topk":
			if len(args) < 1 {
				return fmt.Errorf("topk requires a k argument")
			}
			k, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("topk: invalid k %q: %w", args[0], err)
			}
			args = args[1:]
			if err := doTopK(f, k, ra.format); err != nil {
				return fmt.Errorf("topk: %w", err)
			}

		case "export":
			if len(args) < 2 {
				return fmt.Errorf("export requires a k and a file argument")
			}
			k, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("export: invalid k %q: %w", args[0], err)
			}
			path := args[1]
			args = args[2:]
			if err := doExport(f, k, path, ra.format); err != nil {
				return fmt.Errorf("export: %w", err)
			}

		default:
			return fmt.Errorf("unknown subcommand %q (want ingest, add-edges, run, topk, export)", cmd)
		}
	}
	return nil
}

func doIngest(f *facade.Facade, path string, seeds []int64) error {
	edges, labels, err := readEdgeFile(path, true)
	if err != nil {
		return err
	}
	if err := f.Ingest(facade.IngestInput{Edges: edges, Seeds: seeds, Labels: labels}); err != nil {
		return err
	}
	fmt.Printf("ingested %s nodes, %s edges\n", humanize.Comma(int64(f.N())), humanize.Comma(int64(len(edges))))
	return nil
}

func doAddEdges(f *facade.Facade, path string) error {
	edges, _, err := readEdgeFile(path, false)
	if err != nil {
		return err
	}
	result, err := f.AddEdges(edges)
	if err != nil {
		return err
	}
	fmt.Printf("applied %s edges, warm-started in %d iterations (now %s nodes)\n",
		humanize.Comma(int64(len(edges))), result.Iters, humanize.Comma(int64(f.N())))
	return nil
}

// readEdgeFile reads either a CSV ingestion file or, when path is "-", a
// manual-entry session from stdin (prompted interactively when stdin is a
// TTY, silently when it's piped). withSeeds selects ReadManualSession, which
// also consumes a trailing seeds line after the edge block; that line is
// discarded here, and the seed set comes only from the -seeds flag.
// add-edges passes false, since the seed set is fixed at ingest time.
func readEdgeFile(path string, withSeeds bool) ([]idmap.RawEdge, map[int64]int, error) {
	if path == "-" {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive && withSeeds {
			fmt.Println("Enter edges as `src dst weight`, one per line. Type `end` when done.")
		} else if interactive {
			fmt.Println("Enter edges as `src dst weight`, one per line. Type `end` or Ctrl-D when done.")
		}
		if withSeeds {
			session := ingest.ReadManualSession(os.Stdin)
			if len(session.Edges) == 0 {
				return nil, nil, fmt.Errorf("manual entry: no parseable edge lines: %w", apperr.ErrMalformedInput)
			}
			return session.Edges, nil, nil
		}
		edges := ingest.ParseManualEdges(os.Stdin)
		if len(edges) == 0 {
			return nil, nil, fmt.Errorf("manual entry: no parseable edge lines: %w", apperr.ErrMalformedInput)
		}
		return edges, nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	result, err := ingest.ScanCSV(bufio.NewReader(file))
	if err != nil {
		return nil, nil, err
	}
	return result.Edges, result.Labels, nil
}

func doRun(f *facade.Facade, ra runArgs) error {
	result, err := f.Run(ra.alpha, ra.algorithm, ra.weighted, facade.RunParams{
		MaxIter:  ra.maxIter,
		Tol:      ra.tol,
		NumWalks: ra.numWalks,
		MaxSteps: ra.maxSteps,
		Seed:     ra.rngSeed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("run complete: algorithm=%s iters=%d run_id=%s\n", result.Algorithm, result.Iters, result.RunID)
	return nil
}

func doTopK(f *facade.Facade, k int, format string) error {
	if format == "json" {
		if err := f.TopKJSON(k, os.Stdout); err != nil {
			return err
		}
	} else {
		rows, err := f.TopK(k)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-14s %-12s %s\n", "rank", "node_id", "score", "label")
		for _, row := range rows {
			label := "-"
			if row.Label != 0 {
				label = strconv.Itoa(row.Label)
			}
			fmt.Printf("%-6d %-14d %-12.6f %s\n", row.Rank, row.NodeID, row.Score, label)
		}
	}
	if p, err := f.PrecisionAtK(k); err == nil {
		fmt.Printf("precision@%d: %.1f%%\n", k, p*100)
	}
	return nil
}

func doExport(f *facade.Facade, k int, path string, format string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if format == "json" {
		if err := f.TopKJSON(k, out); err != nil {
			return err
		}
	} else if err := f.ExportTopK(k, out); err != nil {
		return err
	}
	fmt.Printf("exported top-%d report (%s) to %s\n", k, formatLabel(format), path)
	return nil
}

func formatLabel(format string) string {
	if format == "json" {
		return "json"
	}
	return "csv"
}

func resolveFormat(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	return "csv"
}

func resolveFloat(flagVal, cfgVal float64) float64 {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

// resolveWeighted picks the -weighted flag's value only if the caller passed
// it explicitly; otherwise it falls back to the config's default, mirroring
// resolveFloat/resolveInt's "zero value means unset" convention for the one
// flag where the zero value (false) is also a meaningful explicit choice.
func resolveWeighted(flagVal, explicit, cfgVal bool) bool {
	if explicit {
		return flagVal
	}
	return cfgVal
}

func resolveInt(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

func resolveAlgorithm(flagVal, cfgVal string) ppr.Algorithm {
	v := flagVal
	if v == "" {
		v = cfgVal
	}
	if v == "monte_carlo" {
		return ppr.AlgorithmMonteCarlo
	}
	return ppr.AlgorithmPower
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Println("Usage: fraudppr [options] <subcommand> [args...] [<subcommand> [args...] ...]")
	fmt.Println()
	fmt.Println("Subcommands (chained left to right against one shared, in-memory graph):")
	fmt.Println("  ingest <file|->       load a CSV file (source,target,amount[,label]) or manual entry from stdin")
	fmt.Println("  add-edges <file|->    apply an incremental batch of new/updated edges, warm-started")
	fmt.Println("  run                   compute personalized PageRank scores over the current graph")
	fmt.Println("  topk <k>              print the top-k nodes by score, with Precision@K")
	fmt.Println("  export <k> <file>     write the top-k report to file (CSV, or JSON with -format json)")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
