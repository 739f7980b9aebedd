package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patchdiff/internal/config"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "patchdiff",
	Short: "Diff two linter violation reports",
	Long: "patchdiff compares the violation reports of a base and a patch run of the same linter " +
		"and reports which violations were added, removed or left unchanged.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// flagConfigFile overrides the default config file location for every command.
var flagConfigFile string

// configFilePath returns the config file the commands read and write.
func configFilePath() (string, error) {
	if flagConfigFile != "" {
		return flagConfigFile, nil
	}
	return config.ConfigPath()
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print patchdiff version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "patchdiff version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/patchdiff/config.toml)")
}
