package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newEnterCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "enter",
		Short: "Open an interactive shell inside the running container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("enter needs an interactive terminal on stdin")
			}
			mgr, err := newManager(cmd, opts)
			if err != nil {
				return err
			}
			return mgr.Enter(cmd.Context())
		},
	}
}
