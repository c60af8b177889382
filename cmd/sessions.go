package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/smazurov/relaycast/internal/config"
	"github.com/smazurov/relaycast/internal/sessions"
	"github.com/smazurov/relaycast/internal/sessions/store"
)

// CreateSessionsCmd creates the sessions command that lists the sessions file.
func CreateSessionsCmd(options func() *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions in the sessions file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := store.NewTOML(options().SessionsFile).Load()
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSessions(specs))
			return nil
		},
	}
}

// renderSessions draws specs as a table. Destination keys are only shown
// as set or unset.
func renderSessions(specs []sessions.Spec) string {
	headers := []string{"ID", "Title", "Platform", "Profile", "Key", "Source"}
	rows := make([][]string, 0, len(specs))
	for _, s := range specs {
		key := "unset"
		if s.DestinationKey != "" {
			key = "set"
		}
		rows = append(rows, []string{s.ID, s.Title, string(s.Platform), profileSummary(s.Profile), key, s.Source})
	}
	return renderTable(headers, rows, []text.Align{
		text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignLeft, text.AlignLeft,
	})
}

func profileSummary(p sessions.Profile) string {
	s := string(p.Resolution) + "@" + strconv.Itoa(p.FPS) + " " + strconv.Itoa(p.BitrateKbps) + "k"
	if p.Orientation == sessions.OrientationVertical {
		s += " vertical"
	}
	if p.Loop {
		s += " loop"
	}
	return s
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(aligns))
	for i, a := range aligns {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: a, AlignHeader: a})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
