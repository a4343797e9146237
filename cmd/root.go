package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdscan/mdscan/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mdscan",
	Short: "Inventory and review Salesforce package metadata.",
	Long: `mdscan builds an inventory of the metadata in a Salesforce package folder,
evaluates it against a rule table and reports recommendations, edition
install blockers, active alerts and namespace dependencies.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mdscan.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP proxy used to fetch remote rule tables (example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("rules", "", "Rule table: a YAML/JSON file or an http(s) URL (default: built-in table)")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to the scan history SQLite file (default: mdscan.sqlite in CWD)")
	viper.BindPFlag("http.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("rules", rootCmd.PersistentFlags().Lookup("rules"))
	viper.BindPFlag("dbpath", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".mdscan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("mdscan")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("minapi", 0)
	viper.SetDefault("rules", "")
	viper.SetDefault("dbpath", utils.DefaultDBName)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("http.proxy", "")

	// A missing config file is fine; everything has a default.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			utils.Log.Warnf("Could not read config %s: %v", viper.ConfigFileUsed(), err)
		}
	}
}

// dbPathFromConfig returns the absolute history path from --dbpath, the
// config file or the default.
func dbPathFromConfig() (string, error) {
	return utils.GetAbsDBPath(viper.GetString("dbpath"))
}

// requireDB fails when the history file does not exist yet.
func requireDB() (string, error) {
	p, err := dbPathFromConfig()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return "", fmt.Errorf("database file not found: %s (run mdscan scan --db first)", filepath.Clean(p))
	}
	return p, nil
}
