package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

func NewAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question about the indexed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			question, _ := cmd.Flags().GetString("question")
			showContext, _ := cmd.Flags().GetBool("context")

			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ans, err := svc.Ask(cmd.Context(), question)
			if errors.Is(err, domain.ErrNoMatch) {
				fmt.Fprintln(cmd.OutOrStdout(), "No answer found.")
				return nil
			}
			if err != nil {
				return err
			}

			if showContext {
				fmt.Fprintln(cmd.OutOrStdout(), "Context:")
				fmt.Fprintln(cmd.OutOrStdout(), ans.Context)
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Answer:")
			fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
			return nil
		},
	}

	cmd.Flags().StringP("question", "q", "", "Question to answer")
	cmd.Flags().Bool("context", false, "Also print the retrieved context")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
