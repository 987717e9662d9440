package cli

import (
	"github.com/spf13/cobra"
)

func newBuildCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the simulation image from the bundled Dockerfile",
		Long: `Build fetches the external artifacts the image needs, then builds it
locally. Set http_proxy or https_proxy when the build network is restricted;
the value is forwarded into the build as PROXY_HOST.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(cmd, opts)
			if err != nil {
				return err
			}
			return mgr.Build(cmd.Context())
		},
	}
}
