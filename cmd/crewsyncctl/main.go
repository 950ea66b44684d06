// Command crewsyncctl runs sync passes and queries against the crewsync stores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"crewsync-service/internal/app"
	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/infrastructure/config"
	"crewsync-service/pkg/logger"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "crewsyncctl",
		Usage: "Operator commands for the crew and flight sync service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level written to stderr"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Commands: []*cli.Command{
			syncCommand(),
			importCommand(),
			recomputeCommand(),
			swapsCommand(),
			complianceCommand(),
			qualityCommand(),
			probeCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

// withApp loads the config, wires the stores and closes them after fn
func withApp(ctx context.Context, c *cli.Command, fn func(*app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger.NewLoggerWithLevel(c.String("log-level")))
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(a)
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run one sync pass, or every pass when --kind is omitted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Usage: "reference|crew|roster|flight|modlog|ftl"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var kind entity.EntityKind
			if s := c.String("kind"); s != "" {
				k, ok := entity.ParseEntityKind(s)
				if !ok {
					return fmt.Errorf("unknown kind %q", s)
				}
				kind = k
			}
			return withApp(ctx, c, func(a *app.App) error {
				var results []entity.SyncResult
				if kind == "" {
					results = a.Orchestrator.RunAll(ctx)
				} else {
					results = []entity.SyncResult{a.Orchestrator.Run(ctx, kind)}
				}
				if c.Bool("json") {
					return printJSON(results)
				}
				printSyncResults(results)
				for _, r := range results {
					if r.Status == entity.SyncFailed {
						return fmt.Errorf("%s sync failed: %s", r.Kind, r.Error)
					}
				}
				return nil
			})
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Ingest one tabular export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Required: true, Usage: "crew-hours|day-report|roster|standby"},
			&cli.StringFlag{Name: "file", Required: true, Usage: "path to the CSV export"},
			&cli.StringFlag{Name: "date", Usage: "as-of date of a crew-hours export (YYYY-MM-DD)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			reportType, ok := entity.ParseReportType(c.String("type"))
			if !ok {
				return fmt.Errorf("unknown report type %q", c.String("type"))
			}
			path := c.String("file")
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			exportedAt := time.Now().UTC()
			if st, err := os.Stat(path); err == nil {
				exportedAt = st.ModTime().UTC()
			}
			upload := entity.Upload{
				Type:       reportType,
				Filename:   filepath.Base(path),
				Data:       data,
				ExportedAt: exportedAt,
				ReportDate: c.String("date"),
			}
			return withApp(ctx, c, func(a *app.App) error {
				result, err := a.Ingest(ctx, upload)
				if c.Bool("json") {
					if perr := printJSON(result); perr != nil {
						return perr
					}
				} else {
					printSyncResults([]entity.SyncResult{result})
				}
				return err
			})
		},
	}
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "Recompute FTL compliance for one calculation date",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "calculation date (YYYY-MM-DD), today when omitted"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			date := c.String("date")
			if date == "" {
				date = entity.FormatDate(time.Now().UTC())
			}
			return withApp(ctx, c, func(a *app.App) error {
				res, err := a.Engine.Recompute(ctx, date)
				if err != nil {
					return err
				}
				a.ComplianceQuery.Invalidate()
				if c.Bool("json") {
					return printJSON(res)
				}
				fmt.Printf("date %s: %d crew, %d with hours, persisted=%t, best date %s\n",
					res.Date, len(res.Snapshots), res.NonZero, res.Persisted, res.BestDate)
				fmt.Printf("normal %d, warning %d, critical %d\n",
					res.Summary.Normal, res.Summary.Warning, res.Summary.Critical)
				return nil
			})
		},
	}
}

func swapsCommand() *cli.Command {
	return &cli.Command{
		Name:  "swaps",
		Usage: "List aircraft swaps and their KPIs for a period",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Required: true, Usage: "first day (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "last day (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "category", Usage: "MAINTENANCE|WEATHER|CREW|OPERATIONAL|UNKNOWN"},
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "page-size", Value: 20},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			from, err := entity.ParseDate(c.String("from"))
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			to, err := entity.ParseDate(c.String("to"))
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			filter := entity.SwapFilter{
				Period:   entity.NewTimeWindow(from, to),
				Category: entity.SwapCategory(strings.ToUpper(c.String("category"))),
				Page:     int(c.Int("page")),
				PageSize: int(c.Int("page-size")),
			}
			return withApp(ctx, c, func(a *app.App) error {
				page, err := a.SwapQuery.Query(ctx, filter)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(page)
				}
				printSwapPage(page)
				return nil
			})
		},
	}
}

func complianceCommand() *cli.Command {
	return &cli.Command{
		Name:  "compliance",
		Usage: "Show FTL compliance snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "crew", Usage: "one crew ID"},
			&cli.StringFlag{Name: "date", Usage: "calculation date, the best date when omitted"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(a *app.App) error {
				report, err := a.ComplianceQuery.Query(ctx, c.String("crew"), c.String("date"))
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(report)
				}
				printComplianceReport(report)
				return nil
			})
		},
	}
}

func qualityCommand() *cli.Command {
	return &cli.Command{
		Name:  "quality",
		Usage: "Run the data quality check",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(a *app.App) error {
				report, err := a.Quality.Run(ctx)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(report)
				}
				if report.OK() {
					fmt.Println("no findings")
					return nil
				}
				for _, w := range report.Warnings {
					fmt.Printf("%-22s %5d  %s\n", w.Code, w.Count, w.Message)
				}
				return nil
			})
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Check that the live source answers",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(a *app.App) error {
				if a.AIMS == nil {
					return fmt.Errorf("live sync is disabled")
				}
				if err := a.AIMS.Probe(ctx); err != nil {
					return err
				}
				fmt.Println("live source reachable")
				return nil
			})
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSyncResults(results []entity.SyncResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tMODE\tSTATUS\tINSERTED\tUPDATED\tUNCHANGED\tSKIPPED\tATTEMPTS\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Kind, r.Mode, r.Status, r.Inserted, r.Updated, r.Unchanged, r.Skipped, r.Attempts, r.Error)
	}
	tw.Flush()
}

func printSwapPage(page *entity.SwapPage) {
	s := page.Summary
	fmt.Printf("swaps %d (previous %d, trend %.1f%%), impacted flights %d, swap rate %.1f%%\n",
		s.TotalSwaps, s.PreviousSwaps, s.TrendPercent, s.ImpactedFlights, s.SwapRate)
	fmt.Printf("avg delay %.1fh, recovery rate %.1f%%\n", s.AvgDelayHours, s.RecoveryRate)
	for _, r := range s.ReasonBreakdown {
		fmt.Printf("  %-12s %d\n", r.Category, r.Count)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tFLIGHT\tFROM\tTO\tCATEGORY\tDELAY\tRECOVERY\tREASON")
	for _, e := range page.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.EventID, e.FlightDate, e.FlightNumber, e.OriginalReg, e.SwappedReg,
			e.Category, e.DelayMinutes, e.RecoveryStatus, e.Reason)
	}
	tw.Flush()
	fmt.Printf("page %d, %d of %d events\n", page.Page, len(page.Events), page.Total)
}

func printComplianceReport(report *entity.ComplianceReport) {
	fmt.Printf("date %s, mode %s, reliable=%t, stale=%t\n", report.Date, report.Mode, report.Reliable, report.Stale)
	if report.LastSuccessfulSync != nil {
		fmt.Printf("last successful sync %s\n", report.LastSuccessfulSync.Format(time.RFC3339))
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREW\tNAME\t28D\t12M\tLEVEL\tSOURCE")
	for _, s := range report.Snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			s.CrewID, s.CrewName, s.Hours28Day, s.Hours12Month, s.WarningLevel, s.Source)
	}
	tw.Flush()
}
