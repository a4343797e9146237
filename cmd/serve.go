package cmd

import (
	"github.com/mdscan/mdscan/internal/server"
	"github.com/mdscan/mdscan/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan history as a read-only JSON API",
	Long: `Serve the scan history as a read-only JSON API:

  GET /api/scans                  ?source=<dir>&limit=<n>&since=<RFC3339>
  GET /api/scans/{id}             full stored report
  GET /api/scans/{id}/findings
  GET /api/changes?source=<dir>   type count changes between the two newest scans
  GET /api/stats

Basic auth is enabled when server.username or server.password is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := requireDB()
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		addr, _ := cmd.Flags().GetString("bind")
		srv := server.New(db, viper.GetString("server.username"), viper.GetString("server.password"))
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	viper.BindPFlag("server.username", serveCmd.Flags().Lookup("username"))
	viper.BindPFlag("server.password", serveCmd.Flags().Lookup("password"))
}
