package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tastymetrics/internal/catalog"
	"tastymetrics/internal/config"
	"tastymetrics/pkg/errors"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the query catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runnable queries",
	RunE:  runCatalogList,
}

var catalogPullCmd = &cobra.Command{
	Use:   "pull [pack]",
	Short: "Sync query packs from their git repositories",
	Long: "Clone or update the configured query packs. With no argument every\n" +
		"configured pack is synced.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogPull,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogPullCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	registry := catalog.NewRegistry()
	for _, pack := range cfg.Packs {
		defs, err := catalog.LoadPack(pack.Path)
		if err != nil {
			continue
		}
		for _, d := range defs {
			_ = registry.Add(d)
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Title", "Filters", "Source"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, d := range registry.List() {
		source := "pack"
		if d.Builtin() {
			source = "built-in"
		}
		table.Append([]string{d.Name, d.Title, filterSummary(d), source})
	}

	table.Render()
	return nil
}

func filterSummary(d catalog.Definition) string {
	var filters []string
	if d.AcceptsDates {
		filters = append(filters, "date range")
	}
	if d.AcceptsCountry {
		filters = append(filters, "country")
	}
	if d.AcceptsLimit {
		filters = append(filters, "limit")
	}
	if len(filters) == 0 {
		return "none"
	}
	return strings.Join(filters, ", ")
}

func runCatalogPull(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	packs := cfg.Packs
	if len(args) == 1 {
		pack, ok := cfg.GetPack(args[0])
		if !ok {
			return errors.New(errors.ErrCodePackInvalid,
				fmt.Sprintf("no query pack named %q configured", args[0]))
		}
		packs = append(packs[:0:0], pack)
	}
	if len(packs) == 0 {
		fmt.Println("No query packs configured.")
		return nil
	}

	ctx := context.Background()
	for i := range packs {
		pack := packs[i]
		if pack.Path == "" {
			pack.Path = config.PackDir(pack.Name)
		}
		fmt.Printf("Syncing %s from %s...\n", pack.Name, pack.GitURL)
		if err := catalog.SyncPack(ctx, pack); err != nil {
			return err
		}

		defs, err := catalog.LoadPack(pack.Path)
		if err != nil {
			return err
		}
		fmt.Printf("  %d queries available\n", len(defs))

		// Persist the resolved checkout path so list and query can find it.
		for j := range cfg.Packs {
			if cfg.Packs[j].Name == pack.Name {
				cfg.Packs[j].Path = pack.Path
			}
		}
	}

	return config.Save(cfg)
}
