package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/fabricscan/cmd/fabricscan/internal/format"
	"github.com/vulntor/fabricscan/pkg/appctx"
	"github.com/vulntor/fabricscan/pkg/config"
	"github.com/vulntor/fabricscan/pkg/dump"
	"github.com/vulntor/fabricscan/pkg/logging"
	"github.com/vulntor/fabricscan/pkg/version"
)

const cliExecutable = "fabricscan"

// NewCommand builds the fabricscan root command. Its PersistentPreRunE loads the layered
// configuration, configures logging and stores the config manager on the command
// context for subcommands.
func NewCommand() *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Parse FC switch and storage support dumps and classify fabric devices",
		Long: `fabricscan walks support dumps (Brocade supportshow, HPE 3PAR CLI captures), extracts
the configured sections and identifies the devices logged into the Name Server from
their symbolic names.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fl := cmd.Flags().Lookup("output"); fl != nil {
				if err := format.ValidateMode(fl.Value.String()); err != nil {
					return err
				}
			}

			path, explicit := configFile, configFile != ""
			if !explicit {
				path = config.DefaultConfigPath()
			}
			mgr := config.NewManager()
			if err := mgr.Load(config.DefaultSources(path, explicit, cmd.Flags(), debug)...); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			cfg := mgr.Get()
			logging.ConfigureGlobalLogging(cfg.Log.Level, cfg.Log.Format)
			log.Debug().Str("config", path).Str("profile", cfg.Parse.Profile).Msg("configuration loaded")

			cmd.SetContext(appctx.WithConfig(cmd.Context(), mgr))
			return nil
		},
	}

	def := config.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Configuration file path (default: user config dir)")
	pf.BoolVar(&debug, "debug", false, "Shorthand for --log-level debug")
	pf.String("log-level", def.Log.Level, "Log level: trace, debug, info, warn, error")
	pf.String("log-format", def.Log.Format, "Log format: console or json")
	pf.StringP("output", "o", string(format.ModeTable), "Output format: table or json")
	pf.BoolP("quiet", "q", false, "Suppress summaries")
	pf.Bool("no-color", false, "Disable colored output")
	pf.String("patterns", "", "Pattern catalog file replacing the built-in one")
	pf.String("signatures", "", "Signature rule catalog file replacing the built-in one")

	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})
	cmd.AddGroup(&cobra.Group{ID: "info", Title: "Information Commands"})

	cmd.AddCommand(newParseCommand())
	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newPatternsCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute runs the CLI with args and returns the process exit status. Errors are printed
// in the selected output format unless the command already rendered them.
func Execute(ctx context.Context, args []string) int {
	root := NewCommand()
	root.SetArgs(args)
	return execute(ctx, root)
}

func execute(ctx context.Context, root *cobra.Command) int {
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	if cmd == nil {
		cmd = root
	}
	var shown renderedError
	if !errors.As(err, &shown) {
		_ = format.FromCommand(cmd).PrintError(err)
	}
	return ExitCode(err)
}

// renderedError wraps an error whose details are already part of the command output.
type renderedError struct{ error }

func (e renderedError) Unwrap() error { return e.error }

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, config.ErrInvalidConfig) {
		return 2
	}
	return dump.ExitCode(err)
}

// configFrom returns the configuration loaded by the root command.
func configFrom(cmd *cobra.Command) (config.Config, error) {
	mgr, ok := appctx.Config(cmd.Context())
	if !ok {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return mgr.Get(), nil
}
