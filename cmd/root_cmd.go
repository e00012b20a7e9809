package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tq",
	Short: "Tq is a tool for processing TOML data.",
	Long:  "Tq is a tool for processing TOML data. It reads TOML from stdin or a file, checks it, and emits JSON for use in pipelines.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := 0
		if verbose {
			level = 2
		}
		commonlog.Configure(level, nil)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Tq",
	Long:  `All software has versions. This is Tq's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Tq v0.1 -- HEAD")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tomlCmd)
}
