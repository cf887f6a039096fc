package commands

import (
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"PublicationsMonitor/internal/app"
	"PublicationsMonitor/internal/config"
	"PublicationsMonitor/internal/domain"
)

func init() {
	rootCmd.AddCommand(knownCmd)
}

var knownCmd = &cobra.Command{
	Use:   "known",
	Short: "Lists the publications already notified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.ValidateStorage(); err != nil {
			return err
		}

		store, closeStore, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		state, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		renderKnown(cmd.OutOrStdout(), state, cfg.Scheduler.Location())
		return nil
	},
}

func renderKnown(w io.Writer, state domain.KnownPublications, loc *time.Location) {
	rows := make([]domain.KnownPublication, 0, len(state))
	for _, known := range state {
		rows = append(rows, known)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].FirstSeen.Equal(rows[j].FirstSeen) {
			return rows[i].FirstSeen.Before(rows[j].FirstSeen)
		}
		return rows[i].Key() < rows[j].Key()
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"First seen", "Series", "Priority", "Title", "Date"})
	for _, known := range rows {
		date := known.DateText
		if date == "" {
			date = "-"
		}
		t.AppendRow(table.Row{
			known.FirstSeen.In(loc).Format("2006-01-02 15:04"),
			known.PubID,
			string(known.Priority),
			known.Title,
			date,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(rows)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
