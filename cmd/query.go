package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// queryCmd reads a saved JSON report with concrete dot paths such as
// 'inventory.ApexClass.FutureCalls'. A '*' in a key is a gjson glob and
// prints only the first matching value, not every match the way rule
// conditions expand it.
var queryCmd = &cobra.Command{
	Use:   "query <report.json> <path>",
	Short: "Look up a path in a saved JSON report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if !gjson.ValidBytes(b) {
			return fmt.Errorf("%s is not a JSON report", args[0])
		}
		res := gjson.GetBytes(b, args[1])
		if !res.Exists() {
			return fmt.Errorf("path not found: %s", args[1])
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
