package cmd

import (
	"github.com/spf13/cobra"
)

type args struct {
	version    string
	LogLevel   string
	ConfigPath string
	LogFile    string
	ErrLogFile string
	TextFormat bool
}

// InitCommands initializes and returns the root command for the application.
func InitCommands(version string) *cobra.Command {
	args := &args{
		version: version,
	}

	cmd := &cobra.Command{
		Use:   "wikiview",
		Short: "Feishu knowledge base viewer",
		Long:  "wikiview serves the articles of a Feishu knowledge base table as plain web pages.",
	}

	cmd.PersistentFlags().StringVar(&args.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&args.LogLevel, "loglevel", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&args.TextFormat, "logtext", false, "log in text format, otherwise JSON")
	cmd.PersistentFlags().StringVar(&args.LogFile, "logfile", "", "also write logs to this file, rotated by size")
	cmd.PersistentFlags().StringVar(&args.ErrLogFile, "errlogfile", "", "also write error level logs to this file, rotated by size")

	cmd.AddCommand(serveCommand(args))

	return cmd
}

func serveCommand(arg *args) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), arg)
		},
	}
}
