package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flyingbitac/fly-in-docker/internal/configstore"
)

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist per-workspace defaults",
	}
	cmd.AddCommand(newConfigShowCommand(opts), newConfigSetCommand(opts))
	return cmd
}

func newConfigShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings for the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := configstore.Load()
			if err != nil {
				return err
			}
			useACR, arm, models := stored.ProjectFor(opts.dir)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workspace:        %s\n", opts.dir)
			fmt.Fprintf(out, "use_alibaba_acr:  %t\n", useACR)
			fmt.Fprintf(out, "arm:              %t\n", arm)
			fmt.Fprintf(out, "workspace_target: %s\n", stored.WorkspaceTarget)
			for _, model := range models {
				fmt.Fprintf(out, "custom_model:     %s\n", model)
			}
			return nil
		},
	}
}

func newConfigSetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Persist the given flags as defaults for the workspace",
		Long: `Set stores the registry, architecture and custom model flags in the
configuration file, keyed by the workspace's absolute path, so later
invocations in the same workspace apply them without repeating the flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("use-alibaba-acr") && !flags.Changed("arm") && len(opts.customModels) == 0 {
				return errors.New("nothing to persist; pass at least one of --use-alibaba-acr, --arm or --custom-model-path")
			}

			stored, err := configstore.Load()
			if err != nil {
				return err
			}
			key, err := filepath.Abs(opts.dir)
			if err != nil {
				return fmt.Errorf("resolve workspace dir %q: %w", opts.dir, err)
			}
			key = filepath.Clean(key)

			proj := stored.Projects[key]
			if flags.Changed("use-alibaba-acr") {
				v := opts.useACR
				proj.UseAlibabaACR = &v
			}
			if flags.Changed("arm") {
				v := opts.arm
				proj.ARM = &v
			}
			for _, model := range opts.customModels {
				abs, err := filepath.Abs(model)
				if err != nil {
					return fmt.Errorf("resolve model dir %q: %w", model, err)
				}
				if !slices.Contains(proj.CustomModels, abs) {
					proj.CustomModels = append(proj.CustomModels, abs)
				}
			}
			stored.Projects[key] = proj

			if err := configstore.Save(stored); err != nil {
				return err
			}
			_, path, err := configstore.GetConfigPath()
			if err != nil {
				return err
			}
			log.Info("configuration saved", "workspace", key, "path", path)
			return nil
		},
	}
}
