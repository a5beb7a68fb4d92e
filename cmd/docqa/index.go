package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a document",
		Long:  `Split a PDF or text document into overlapping word chunks, embed them and replace the stored index.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("path")

			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			report, err := svc.IndexFile(cmd.Context(), path)
			for _, s := range report.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "Couldn't embed part %d: %v\n", s.Position, s.Err)
			}
			if err != nil {
				return err
			}

			if report.StoreUpdated {
				fmt.Fprintln(cmd.OutOrStdout(), "Document saved successfully.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No parts were saved.")
			}
			return nil
		},
	}

	cmd.Flags().StringP("path", "p", "", "Path to a .pdf or .txt document")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
