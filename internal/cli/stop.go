package cli

import (
	"github.com/spf13/cobra"
)

func newStopCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the workspace's running container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(cmd, opts)
			if err != nil {
				return err
			}
			return mgr.Stop(cmd.Context())
		},
	}
}
