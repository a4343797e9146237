package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/mdscan/mdscan/pkg/storage"
	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show type count changes between the two newest scans of a package",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		root, err := filepath.Abs(dir)
		if err != nil {
			return err
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

		changes, err := db.Changes(cmd.Context(), root)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			fmt.Println("No changes.")
			return nil
		}
		for _, c := range changes {
			fmt.Printf("%-7s  %-40s  %d -> %d\n", c.ChangeType, c.Type, c.Before, c.After)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().StringP("dir", "d", ".", "Package folder whose scans are compared")
}
