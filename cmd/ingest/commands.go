package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/albapepper/hoopstats/internal/config"
	"github.com/albapepper/hoopstats/internal/ingest"
	"github.com/albapepper/hoopstats/internal/maintenance"
	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
	"github.com/albapepper/hoopstats/internal/stats"
	"github.com/albapepper/hoopstats/internal/store"
)

// --------------------------------------------------------------------------
// csv / seed commands
// --------------------------------------------------------------------------

func csvCmd(g *globalFlags) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "csv <file>...",
		Short: "Ingest box-score CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				up := ingest.NewUpserter(st, logger, maintenance.AfterIngest(st, logger))
				start := time.Now()
				res, err := up.IngestFiles(ctx, args, workers)
				logger.Info("CSV ingest finished",
					"files", len(args),
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", res.Summary())
				logResultErrors(res)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 2, "Files ingested concurrently")
	return cmd
}

func seedCmd(g *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Delete all records and load the demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				path := file
				if path == "" {
					path = cfg.DemoCSVPath
				}
				up := ingest.NewUpserter(st, logger, maintenance.AfterIngest(st, logger))
				start := time.Now()
				res, err := up.SeedDemo(ctx, path)
				if err != nil {
					return err
				}
				logger.Info("Demo seed finished",
					"path", path,
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", res.Summary())
				logResultErrors(res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV to load (default from DEMO_CSV_PATH)")
	return cmd
}

func logResultErrors(res ingest.Result) {
	for _, e := range res.Errors {
		logger.Warn("row skipped", "error", e)
	}
}

// --------------------------------------------------------------------------
// query commands
// --------------------------------------------------------------------------

func playersCmd(g *globalFlags) *cobra.Command {
	var (
		name, team, position string
		from, to             string
		sortField, dir       string
		page, pageSize       int
	)
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List aggregated player summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := url.Values{}
			setIf(v, "q", name)
			setIf(v, "team", team)
			setIf(v, "position", position)
			setIf(v, "dateFrom", from)
			setIf(v, "dateTo", to)
			setIf(v, "sort", sortField)
			setIf(v, "dir", dir)
			v.Set("page", strconv.Itoa(page))
			v.Set("pageSize", strconv.Itoa(pageSize))
			q := query.PlayerQueryFromValues(v)

			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				res, err := stats.New(st, logger).QueryPlayers(ctx, q)
				if err != nil {
					return err
				}
				renderPlayers(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "q", "", "Player name contains")
	f.StringVar(&team, "team", "", "Exact team name")
	f.StringVar(&position, "position", "", "Position contains")
	f.StringVar(&from, "from", "", "Earliest game date (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "Latest game date (YYYY-MM-DD)")
	f.StringVar(&sortField, "sort", "points", "Sort field: points, assists, rebounds, minutes, name")
	f.StringVar(&dir, "dir", "desc", "Sort direction: asc or desc")
	f.IntVar(&page, "page", 1, "Page number")
	f.IntVar(&pageSize, "page-size", query.DefaultPageSize, "Rows per page (max 50)")
	return cmd
}

func seriesCmd(g *globalFlags) *cobra.Command {
	var (
		metric string
		window int
	)
	cmd := &cobra.Command{
		Use:   "series <player-id>",
		Short: "Show a player's per-game series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.SeriesQuery{PlayerID: args[0], Metric: query.Metric(metric), Window: window}.Normalize()
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				points, err := stats.New(st, logger).PlayerSeries(ctx, q)
				if err != nil {
					return err
				}
				renderSeries(cmd.OutOrStdout(), q, points)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "points", "Metric: points, assists, rebounds, minutes")
	cmd.Flags().IntVar(&window, "window", 0, "Moving average window: 0, 5 or 10")
	return cmd
}

func teamsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List distinct team names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				names, err := stats.New(st, logger).TeamNames(ctx)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
}

func orphansCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Count StatLines whose player or game is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				counts := maintenance.SweepOrphans(ctx, st, logger)
				fmt.Fprintf(cmd.OutOrStdout(), "missing player: %d\nmissing game:   %d\n",
					counts.MissingPlayer, counts.MissingGame)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// store.Open migrates up before returning.
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert every migration (drops all tables)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				s, ok := st.SQL()
				if !ok {
					return fmt.Errorf("driver %q has no schema", st.Driver())
				}
				return s.Rollback(ctx, logger)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(g, func(ctx context.Context, cfg *config.Config, st *store.Handle) error {
				s, ok := st.SQL()
				if !ok {
					return fmt.Errorf("driver %q has no schema", st.Driver())
				}
				v, err := s.MigrationVersion(ctx, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v.Version, v.Dirty)
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Rendering
// --------------------------------------------------------------------------

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func renderPlayers(w io.Writer, res *model.PlayerPage) {
	t := newTable(w)
	t.Header("ID", "NAME", "TEAM", "POS", "GP", "PTS", "AST", "REB", "MIN")
	for _, p := range res.Items {
		team := "-"
		if p.Team != nil {
			team = p.Team.Name
		}
		t.Append(
			p.ID,
			p.Name,
			team,
			p.Position,
			strconv.Itoa(p.GameCount),
			fmt.Sprintf("%.1f", p.AvgPoints),
			fmt.Sprintf("%.1f", p.AvgAssists),
			fmt.Sprintf("%.1f", p.AvgRebounds),
			fmt.Sprintf("%.1f", p.AvgMinutes),
		)
	}
	t.Render()

	pages := (res.Total + res.PageSize - 1) / res.PageSize
	fmt.Fprintf(w, "\npage %d of %d, %d players\n", res.Page, max(pages, 1), res.Total)
}

func renderSeries(w io.Writer, q query.SeriesQuery, points []model.SeriesPoint) {
	if len(points) == 0 {
		fmt.Fprintf(w, "no games for player %s\n", q.PlayerID)
		return
	}
	label := string(q.Metric)
	if q.Window > 0 {
		label = fmt.Sprintf("%s (avg %d)", q.Metric, q.Window)
	}
	t := newTable(w)
	t.Header("DATE", label)
	for _, p := range points {
		t.Append(p.Date.Format("2006-01-02"), fmt.Sprintf("%.2f", p.Value))
	}
	t.Render()
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
