package main

import (
	"github.com/spf13/cobra"

	"docqa/internal/tui"
)

func NewChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			return a.runTUI(tui.New(cmd.Context(), svc))
		},
	}
}
