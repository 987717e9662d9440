package cli

import (
	"github.com/spf13/cobra"
)

func newStartCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the workspace's container in the background",
		Long: `Start launches a detached container for the workspace, mounting the
workspace directory, X11 forwarding files, the ROS log directory and any
custom drone models. The image must already exist locally; run build or pull
first. Starting an already-running container does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(cmd, opts)
			if err != nil {
				return err
			}
			return mgr.Start(cmd.Context())
		},
	}
}
