package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/mdscan/mdscan/pkg/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scans, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetString("since")

		opts := storage.ListOptions{Limit: limit}
		if dir != "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			opts.Source = abs
		}
		if since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since (want RFC3339): %w", err)
			}
			opts.Since = t
		}

		dbPath, err := requireDB()
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		scans, err := db.ListScans(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(scans) == 0 {
			fmt.Println("No scans in the database.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tRULES\tCOMPONENTS\tFINDINGS\tSOURCE\t")
		for _, s := range scans {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t\n", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.RulesVersion, s.Components, s.Findings, s.Source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("dir", "d", "", "Only list scans of this package folder")
	historyCmd.Flags().Int("limit", 50, "Number of scans to show (0 for all)")
	historyCmd.Flags().String("since", "", "Only list scans since this RFC3339 timestamp")
}
