package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pitchpod/pitchpod-go/cmd/assign"
	exportcmd "github.com/pitchpod/pitchpod-go/cmd/export"
	"github.com/pitchpod/pitchpod-go/cmd/importer"
	synccmd "github.com/pitchpod/pitchpod-go/cmd/sync"
	"github.com/pitchpod/pitchpod-go/cmd/trim"
	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pitchpod",
		Short: "pitchpod session telemetry CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		logging.Error("Failed to set up global flags", "error", err)
	}

	subcommands := []*cobra.Command{
		importer.Command(settings),
		exportcmd.Command(settings),
		synccmd.Command(settings),
		assign.Command(settings),
		trim.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Flag values take precedence over the config file.
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		settings.Debug = viper.GetBool("debug")
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite store")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
