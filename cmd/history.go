package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"abchart/internal/storage"
	"abchart/internal/table"
	"abchart/internal/tui/history"
	"abchart/internal/tui/styles"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List charts saved with --history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List()
		if err != nil {
			return err
		}

		if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
			p := tea.NewProgram(history.NewModel(items), tea.WithAltScreen())
			_, err := p.Run()
			return err
		}
		return printHistory(os.Stdout, items)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved chart (an ID prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		return printRecord(os.Stdout, rec)
	},
}

func init() {
	historyCmd.Flags().BoolP("interactive", "i", false, "Browse saved charts in a terminal UI")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*storage.Store, error) {
	path, err := historyPath()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

func printHistory(w io.Writer, items []storage.SweepRecord) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No saved charts. Run abchart with --history first.")
		return err
	}

	t := table.Table{{"id", "time", "runs", "peak req/s", "chart"}}
	for _, item := range items {
		t = append(t, []any{
			item.ID[:min(8, len(item.ID))],
			item.Timestamp.Format(time.DateTime),
			item.Summary.Runs,
			fmt.Sprintf("%.2f", item.Summary.PeakRPS),
			item.Title,
		})
	}
	return table.Fprint(w, t)
}

func printRecord(w io.Writer, rec *storage.SweepRecord) error {
	fmt.Fprintln(w, styles.Title.Render(rec.Title+":"))
	fmt.Fprintln(w, styles.Subtle.Render(strings.Join([]string{
		rec.ID,
		rec.Timestamp.Format(time.DateTime),
		rec.Tool + " -> " + rec.Target,
	}, "  ")))
	return table.Fprint(w, rec.Table())
}
