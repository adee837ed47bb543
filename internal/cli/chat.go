package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about the ingested document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stack, err := a.buildQueryStack(ctx)
			if err != nil {
				return err
			}
			defer stack.close()

			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)

			return NewSession(stack.service, a.in, a.out, interrupts, a.cfg.QuestionTimeout).Run(ctx)
		},
	}
}
