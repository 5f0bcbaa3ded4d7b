package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/digestparty/cmd/benchmark/templates"
	"github.com/delaneyj/digestparty/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	watchersKey   = "watchers"
	itersKey      = "iters"
	formatKey     = "format"
	scenariosKey  = "scenarios"
	logLevelKey   = "log-level"
	cpuProfileKey = "cpuprofile"

	formatTable    = "table"
	formatMarkdown = "markdown"

	reportTitle = "Digest benchmark"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure digest latency over wide and deep scope trees",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  watchersKey,
				Usage: "Watchers registered on every scope",
				Value: 1,
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Digests measured per scenario",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  formatKey,
				Usage: "Output format, table or markdown",
				Value: formatTable,
			},
			&cli.StringFlag{
				Name:  scenariosKey,
				Usage: "YAML file of scenarios to run instead of the width by depth grid",
			},
			&cli.StringFlag{
				Name:  logLevelKey,
				Usage: "Log level for recovered digest failures",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: benchmark,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func benchmark(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Digest benchmark started")
	defer func() {
		log.Printf("Digest benchmark finished in %v", time.Since(start))
	}()

	format := cmd.String(formatKey)
	if format != formatTable && format != formatMarkdown {
		return fmt.Errorf("unknown format %q", format)
	}

	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	scenarios := gridScenarios(ww, hh, int(cmd.Uint(watchersKey)), iters)
	if path := cmd.String(scenariosKey); path != "" {
		loaded, err := loadScenarios(path, iters)
		if err != nil {
			return err
		}
		scenarios = loaded
	}

	logger := logging.New(logging.ParseLevel(cmd.String(logLevelKey)))

	results := make([]result, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.validate(); err != nil {
			return err
		}
		log.Printf("Running '%s' (%s scopes)", sc.Name, humanize.Comma(int64(sc.scopes())))
		res, err := runScenario(sc, logger)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		results = append(results, res)
	}

	return render(os.Stdout, format, results)
}

func rows(results []result) []templates.Row {
	rows := make([]templates.Row, len(results))
	for i, r := range results {
		rows[i] = templates.Row{
			Name:           r.scenario.Name,
			Scopes:         humanize.Comma(int64(r.scenario.scopes())),
			Watchers:       humanize.Comma(int64(r.scenario.scopes() * r.scenario.Watchers)),
			Avg:            r.calc.Time.Avg.String(),
			Min:            r.calc.Time.Min.String(),
			P75:            r.calc.Time.P75.String(),
			P99:            r.calc.Time.P99.String(),
			Max:            r.calc.Time.Max.String(),
			EvalsPerDigest: humanize.FormatFloat("#,###.#", r.evaluationsPerDigest()),
			Checksum:       fmt.Sprintf("%016x", r.checksum),
		}
	}
	return rows
}

func render(w io.Writer, format string, results []result) error {
	if format == formatMarkdown {
		templates.WriteReport(w, reportTitle, rows(results))
		return nil
	}

	tbl := table.NewWriter()
	tbl.SetTitle(reportTitle)
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"benchmark", "scopes", "watchers", "avg", "min", "p75", "p99", "max", "evals/digest", "checksum"})
	for _, r := range rows(results) {
		tbl.AppendRow(table.Row{
			r.Name, r.Scopes, r.Watchers,
			r.Avg, r.Min, r.P75, r.P99, r.Max,
			r.EvalsPerDigest, r.Checksum,
		})
	}
	tbl.Render()
	return nil
}
