// Package cli wires the command-line surface: one subcommand per lifecycle
// action, shared flags resolved against the persisted configuration.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flyingbitac/fly-in-docker/internal/configstore"
	"github.com/flyingbitac/fly-in-docker/internal/runner"
)

// version is stamped at link time by the release build.
var version = "dev"

type options struct {
	dir          string
	useACR       bool
	arm          bool
	customModels []string
	verbose      bool
}

// NewRootCommand assembles the fly-in-docker command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fly-in-docker",
		Short: "Manage the drone simulation dev container for a workspace",
		Long: `fly-in-docker manages one development container per workspace directory
for GPU-accelerated ROS and PX4 drone simulation. The image ships the full
toolchain; the workspace and any custom drone models are bind-mounted in.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.SetVersionTemplate("fly-in-docker {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "d", ".", "workspace directory the container serves")
	flags.BoolVarP(&opts.useACR, "use-alibaba-acr", "a", false, "use the Alibaba Cloud container registry instead of Docker Hub")
	flags.BoolVar(&opts.arm, "arm", false, "force the aarch64 image variant regardless of host architecture")
	flags.StringArrayVarP(&opts.customModels, "custom-model-path", "c", nil, "custom drone model directory to mount (repeatable)")
	flags.BoolVarP(&opts.verbose, "verbose", "V", false, "enable debug logging")

	root.AddCommand(
		newBuildCommand(opts),
		newPullCommand(opts),
		newStartCommand(opts),
		newEnterCommand(opts),
		newStopCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// newManager resolves the effective configuration for the invocation:
// persisted defaults first, per-project overrides next, explicit flags last.
func newManager(cmd *cobra.Command, opts *options) (*runner.Manager, error) {
	stored, err := configstore.Load()
	if err != nil {
		return nil, err
	}

	useACR, arm, customModels := stored.ProjectFor(opts.dir)
	if cmd.Flags().Changed("use-alibaba-acr") {
		useACR = opts.useACR
	}
	if cmd.Flags().Changed("arm") {
		arm = opts.arm
	}
	customModels = append(customModels, opts.customModels...)

	cfg := runner.Config{
		WorkspaceDir:    opts.dir,
		CustomModelDirs: customModels,
		UseAlibabaACR:   useACR,
		ARMOverride:     arm,
		WorkspaceTarget: stored.WorkspaceTarget,
		Env:             runner.EnvFromProcess(),
	}
	mgr, err := runner.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved container identity", "image", mgr.ImageRef(), "container", mgr.ContainerName())
	return mgr, nil
}
