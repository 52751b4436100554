package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tastymetrics/internal/catalog"
	"tastymetrics/internal/render"
	"tastymetrics/pkg/models"
)

var (
	flagStart   string
	flagEnd     string
	flagCountry []string
	flagLimit   int
	flagFormat  string
	flagOutput  string
)

var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Run a catalog query",
	Long: "Run a named query from the catalog. Date range bounds are inclusive.\n" +
		"The country filter takes 'all' to disable filtering and 'none' to match\n" +
		"nothing; both differ from listing specific countries.",
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagStart, "start", "", "start date, YYYY-MM-DD inclusive")
	queryCmd.Flags().StringVar(&flagEnd, "end", "", "end date, YYYY-MM-DD inclusive")
	queryCmd.Flags().StringSliceVar(&flagCountry, "country", nil, "country filter; 'all' disables, 'none' matches nothing")
	queryCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of rows for ranking queries")
	queryCmd.Flags().StringVar(&flagFormat, "format", "", "output format: table, json or csv")
	queryCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write output to a file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	name := args[0]

	runner, cfg, cleanup, err := newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	params, err := buildParams(cmd.Flags(), cfg.Reports)
	if err != nil {
		return err
	}

	format, err := resolveFormat(cmd.Flags(), cfg.Reports)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := runner.Run(ctx, name, params)
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := render.Write(out, result, format); err != nil {
		return err
	}

	// An empty result is valid, but when a date range is set it is usually a
	// default mismatched to the data. Show the actual span to fix the filter.
	if result.Empty() && params.Dates != nil {
		if min, max, err := runner.DateSpan(ctx); err == nil {
			fmt.Fprintln(os.Stderr, color.YellowString(
				"No rows matched the date range %s..%s; the data spans %s..%s.",
				params.Dates.Start.Format("2006-01-02"), params.Dates.End.Format("2006-01-02"),
				min.Format("2006-01-02"), max.Format("2006-01-02")))
		}
	}

	return nil
}

// buildParams merges flags with config defaults. Flags win; a flag the user
// did not pass falls back to the reports section of the config file.
func buildParams(flags *pflag.FlagSet, defaults models.ReportDefaults) (catalog.Params, error) {
	var p catalog.Params

	start, end := flagStart, flagEnd
	if !flags.Changed("start") && start == "" {
		start = defaults.StartDate
	}
	if !flags.Changed("end") && end == "" {
		end = defaults.EndDate
	}
	switch {
	case start != "" && end != "":
		dr, err := catalog.ParseDateRange(start, end)
		if err != nil {
			return p, err
		}
		p.Dates = &dr
	case start != "" || end != "":
		return p, fmt.Errorf("--start and --end must be provided together")
	}

	countries := flagCountry
	if !flags.Changed("country") && len(countries) == 0 {
		countries = defaults.Countries
	}
	p.Country = parseCountryFlag(countries)

	p.Limit = flagLimit
	if !flags.Changed("limit") && p.Limit == 0 {
		p.Limit = defaults.Limit
	}

	return p, nil
}

func parseCountryFlag(values []string) catalog.CountryFilter {
	if len(values) == 0 {
		return catalog.AllCountries()
	}
	for _, v := range values {
		if strings.EqualFold(v, "all") {
			return catalog.AllCountries()
		}
	}
	if len(values) == 1 && strings.EqualFold(values[0], "none") {
		return catalog.Countries()
	}
	return catalog.Countries(values...)
}

func resolveFormat(flags *pflag.FlagSet, defaults models.ReportDefaults) (render.Format, error) {
	f := flagFormat
	if !flags.Changed("format") && f == "" {
		f = defaults.Format
	}
	if f == "" {
		f = string(render.FormatTable)
	}
	return render.ParseFormat(f)
}
