//go:build !tinygo

package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"baer/catalog"
	"baer/player"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var catalogRescan bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the slots and tracks of the media tree",
	Long: `Load the catalog the way the device does at boot, using the meta cache
when it matches the slot list, and print it as a table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(catalog.Options{
			Root:      cfg.MediaRoot,
			Slots:     cfg.Slots,
			CachePath: cfg.MetaCachePath(),
			Rescan:    catalogRescan,
			Log:       slog.Default(),
		})
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		renderCatalog(cmd.OutOrStdout(), cat)
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogRescan, "rescan", false, "ignore the meta cache and rescan the media tree")
}

func renderCatalog(w io.Writer, cat player.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slot", "Dir", "Track", "Title", "Artist"})
	total := 0
	for i, s := range cat {
		if len(s.Tracks) == 0 {
			t.AppendRow(table.Row{i, s.Dir, "-", "", ""})
			continue
		}
		for j, tr := range s.Tracks {
			t.AppendRow(table.Row{i, s.Dir, j, tr.Title, tr.Artist})
		}
		total += len(s.Tracks)
	}
	t.AppendFooter(table.Row{"", "", total, "tracks", ""})
	t.Render()
}
