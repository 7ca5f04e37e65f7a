package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edusync/learnlog/cmd/migrate"
	"github.com/edusync/learnlog/cmd/status"
	"github.com/edusync/learnlog/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "learnlog",
		Short: "Learnlog progress log migration CLI",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		migrate.Command(settings),
		status.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the sqlite database")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}
