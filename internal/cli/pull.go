package cli

import (
	"github.com/spf13/cobra"
)

func newPullCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the simulation image from its registry",
		Long: `Pull fetches the prebuilt image from Docker Hub, or from the Alibaba
Cloud registry with --use-alibaba-acr. An image already present locally is
left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(cmd, opts)
			if err != nil {
				return err
			}
			return mgr.Pull(cmd.Context())
		},
	}
}
