package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mdscan/mdscan/internal/utils"
	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/recommend"
	"github.com/mdscan/mdscan/pkg/rules"
	"github.com/mdscan/mdscan/pkg/scanners"
	"github.com/mdscan/mdscan/pkg/source"
	"github.com/mdscan/mdscan/pkg/storage"
	"github.com/mdscan/mdscan/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scanCmd implements: mdscan scan -d <dir>
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a package folder and print recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown argument: '%s'. See 'mdscan scan --help'", args[0])
		}
		dir, _ := cmd.Flags().GetString("dir")
		asJSON, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("output")
		invOnly, _ := cmd.Flags().GetBool("inventory")
		useDB, _ := cmd.Flags().GetBool("db")

		root, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		tbl, err := loadRules(cmd.Context())
		if err != nil {
			return err
		}

		src, err := source.Open(root)
		if err != nil {
			return err
		}
		if src.SourceAPIVersion != "" {
			utils.Log.Infof("Project source API version: %s", src.SourceAPIVersion)
		}

		start := time.Now()
		inv, err := inventory.Run(inventory.Config{
			Source:   src,
			Registry: scanners.Registry(),
			Log:      utils.Log,
			OnTypeDone: func(metadataType string, members int) {
				utils.Log.Debugf("Scanned %s (%d members)", metadataType, members)
			},
		})
		if err != nil {
			return err
		}
		utils.Log.Infof("Scanned %s in %s", root, time.Since(start).Round(time.Millisecond))
		for _, d := range inv.Diagnostics {
			utils.Log.Debugf("%s: %s %s: %s", d.Kind, d.Type, d.Member, d.Message)
		}

		report := recommend.New(tbl, int64(viper.GetInt("minapi")), time.Now()).Report(root, inv)

		if useDB {
			if err := saveScan(cmd.Context(), report); err != nil {
				return err
			}
		}

		out := io.Writer(os.Stdout)
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		switch {
		case invOnly:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(inv.Tree())
		case asJSON:
			return report.WriteJSON(out)
		default:
			return report.WriteText(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("dir", "d", ".", "Package folder (metadata API or source layout)")
	scanCmd.Flags().Int("minapi", 0, "Minimum supported API version (default: the rule table's value)")
	scanCmd.Flags().Bool("json", false, "Print the full report as JSON")
	scanCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	scanCmd.Flags().Bool("inventory", false, "Print the raw inventory tree as JSON and skip the summary")
	scanCmd.Flags().Bool("db", false, "Save the scan to the history database")
	viper.BindPFlag("minapi", scanCmd.Flags().Lookup("minapi"))
}

// loadRules reads the configured rule table, fetching remote tables
// through the configured proxy.
func loadRules(ctx context.Context) (*rules.Table, error) {
	client, err := whttp.NewClient(viper.GetString("http.proxy"))
	if err != nil {
		return nil, err
	}
	return rules.Load(ctx, viper.GetString("rules"), client)
}

func saveScan(ctx context.Context, report *recommend.Report) error {
	dbPath, err := dbPathFromConfig()
	if err != nil {
		return err
	}
	return utils.WithLock(dbPath, func() error {
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveScan(ctx, report)
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved scan %d to %s", id, dbPath)
		return nil
	})
}
