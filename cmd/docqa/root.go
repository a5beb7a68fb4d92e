package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Ask questions about a document",
		Long:          `Index a PDF or text document into a vector store and answer questions about it with a generative model.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		rootCmd.AddCommand(
			NewIndexCmd(a),
			NewAskCmd(a),
			NewChatCmd(a),
		)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")
	cmd.PersistentFlags().Bool("verbose", false, "Log pipeline progress to stderr")
}
