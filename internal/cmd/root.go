// Package cmd implements the groupptr command tree.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"groupptr/internal/config"
	"groupptr/internal/logging"
	"groupptr/pkg/memory"
)

// Version is set at build time with -ldflags "-X groupptr/internal/cmd.Version=...".
var Version = "dev"

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree with its own configuration state.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:   "groupptr",
		Short: "Grouped reference counting walkthroughs",
		Long: `groupptr demonstrates handles whose unit of liveness is a group of
objects: while any handle points into a group, every member of the group
stays alive, and the whole group is destroyed when the last handle goes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(a.v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cmd.OutOrStdout(), cfg.Log)

			log := a.log
			memory.SetErrorHandler(func(err error) {
				log.Error("payload release failed", "err", err)
			})
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/groupptr/groupptr.yaml)")
	flags.String("log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
	flags.String("log-format", "", "log format: text or json")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newDemoCmd(a),
		newTreeCmd(a),
		newVersionCmd(),
	)
	return root
}
