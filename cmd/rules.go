package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mdscan/mdscan/pkg/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print or validate the active rule table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		validate, _ := cmd.Flags().GetBool("validate")

		tbl, err := loadRules(cmd.Context())
		src := viper.GetString("rules")
		if src == "" {
			src = "built-in"
		}
		if err != nil {
			var cfgErr *rules.ConfigurationError
			if errors.As(err, &cfgErr) {
				return fmt.Errorf("%s: %w", src, err)
			}
			return err
		}

		if validate {
			fmt.Printf("%s: version %s, %d rules, %d editions, %d alerts: OK\n", src, tbl.Version, len(tbl.Rules), len(tbl.Editions), len(tbl.Alerts))
			return nil
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(tbl)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().Bool("validate", false, "Only validate the table")
}
