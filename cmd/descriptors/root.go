package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/holons/internal/logging"
	"github.com/mesh-intelligence/holons/internal/paths"
	"github.com/mesh-intelligence/holons/pkg/types"
)

// app holds global flag values and the state PersistentPreRunE derives
// from them.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool

	in     io.Reader
	cfg    types.Config
	logger *zap.SugaredLogger
}

// newRootCmd creates the top-level "descriptors" command with global flags
// and all subcommands registered.
func newRootCmd(stdin io.Reader) *cobra.Command {
	a := &app{in: stdin, logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "descriptors",
		Short: "Manage holon and property descriptors",
		Long: "descriptors stores holon and property descriptors as revision chains\n" +
			"in a local content-addressed store, resolves shared property types,\n" +
			"and serves the store over HTTP.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+", default ./"+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newHolonCmd(a),
		newPropertyCmd(a),
		newResolveCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup builds the logger and loads config.yaml.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return err
	}
	a.configDir = configDir

	cfg, err := loadConfig(configDir, a.dataDir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debugw("loaded config", "config_dir", configDir, "data_dir", cfg.DataDir, "backend", cfg.Backend)
	return nil
}

// args wraps a cobra.PositionalArgs so its failures exit as usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}
