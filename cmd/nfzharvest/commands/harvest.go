package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"nfzharvest/lib/configutil"
	"nfzharvest/lib/recordio"
	"nfzharvest/lib/scrapers/umowy"
	"nfzharvest/lib/serviceutil"
	"nfzharvest/lib/telemetry"
	"nfzharvest/services/harvest"
	"nfzharvest/services/harvest/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Config carries flag defaults, overridable via nfzharvest.json5.
type Config struct {
	BaseUrl string `json:"base_url"`
	Year    int    `json:"year"`
	Branch  string `json:"branch"`
	Service string `json:"service"`
	Workers int    `json:"workers"`
	Output  string `json:"output"`
	Db      string `json:"db"`
}

var harvestFlags struct {
	year    *int
	branch  *string
	service *string
	workers *int
	output  *string
	db      *string
}

func init() {
	harvestFlags.year = harvestCmd.Flags().Int("year", 2024, "contract year to harvest")
	harvestFlags.branch = harvestCmd.Flags().String("branch", "06", "NFZ branch code")
	harvestFlags.service = harvestCmd.Flags().String("service", "03", "service type code")
	harvestFlags.workers = harvestCmd.Flags().Int("workers", 10, "parallel provider workers")
	harvestFlags.output = harvestCmd.Flags().String("output", "NFZ_full_{}.csv", "output path, {} is replaced with the year")
	harvestFlags.db = harvestCmd.Flags().String("db", "", "optional sqlite database to also write results to")
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [--year <n>] [--branch <code>] [--service <code>] [--output <path>]",
	Short: "Runs the full provider → agreement → plan → month extraction and writes the relation.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("nfzharvest.json5")
		if err != nil && !os.IsNotExist(err) {
			serviceutil.Fatal("failed to read config", err)
		}
		applyConfig(cmd, &cfg)

		if cfg.Workers < 1 {
			serviceutil.Fatal("invalid configuration", fmt.Errorf("workers must be >= 1, got %d", cfg.Workers))
		}
		if !strings.Contains(cfg.Output, "{}") {
			serviceutil.Fatal("invalid configuration", fmt.Errorf("output %q has no {} year placeholder", cfg.Output))
		}

		client, err := umowy.NewClient(umowy.ClientOptions{
			BaseURL: cfg.BaseUrl,
			Memoize: true,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize portal client", err)
		}

		ctx := serviceutil.SignalContext()
		telemetry.InstrumentPerfStats(ctx, time.Second*30)

		t1 := time.Now()
		result, err := harvest.NewService(client).Run(ctx, harvest.Options{
			Query: umowy.Query{
				Year:    cfg.Year,
				Branch:  cfg.Branch,
				Service: cfg.Service,
			},
			Workers: cfg.Workers,
		})
		elapsed := time.Since(t1)

		switch {
		case errors.Is(err, harvest.ErrNoProviders),
			errors.Is(err, harvest.ErrNoRecords):
			slog.Warn("harvest produced no data", "reason", err)
			return
		case err != nil:
			serviceutil.Fatal("harvest failed", err)
		}

		output := strings.ReplaceAll(cfg.Output, "{}", strconv.Itoa(cfg.Year))
		err = recordio.WriteCSVFile(output, result.Records)
		if err != nil {
			serviceutil.Fatal("failed to write output file", err)
		}
		slog.Info("wrote output file", "path", output, "records", len(result.Records))

		if cfg.Db != "" {
			writeStore(ctx, cfg.Db, result.Records)
		}

		summary := table.NewWriter()
		summary.SetStyle(table.StyleRounded)
		summary.SetOutputMirror(os.Stdout)
		summary.AppendHeader(table.Row{"providers", "records", "duration", "output"})
		summary.AppendRow(table.Row{result.Providers, len(result.Records), elapsed.Round(time.Second), output})
		summary.Render()
	},
}

func writeStore(ctx context.Context, path string, records []umowy.Record) {
	st, err := store.Open(path)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	defer st.Close()

	err = st.Replace(ctx, records)
	if err != nil {
		serviceutil.Fatal("failed to write db", err)
	}
	slog.Info("wrote database", "path", path, "records", len(records))
}

// flags win over the config file, the config file wins over flag defaults.
func applyConfig(cmd *cobra.Command, cfg *Config) {
	if cfg.Year == 0 || cmd.Flags().Changed("year") {
		cfg.Year = *harvestFlags.year
	}
	if cfg.Branch == "" || cmd.Flags().Changed("branch") {
		cfg.Branch = *harvestFlags.branch
	}
	if cfg.Service == "" || cmd.Flags().Changed("service") {
		cfg.Service = *harvestFlags.service
	}
	if cfg.Workers == 0 || cmd.Flags().Changed("workers") {
		cfg.Workers = *harvestFlags.workers
	}
	if cfg.Output == "" || cmd.Flags().Changed("output") {
		cfg.Output = *harvestFlags.output
	}
	if cmd.Flags().Changed("db") {
		cfg.Db = *harvestFlags.db
	}
}
