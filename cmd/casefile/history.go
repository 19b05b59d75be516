package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/casefile/internal/versions"
)

type slotOptions struct {
	CaseID       string
	DocumentType string
}

func (s *slotOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.CaseID, "case", "", "case identifier (required)")
	cmd.Flags().StringVar(&s.DocumentType, "type", "", "document type (required)")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("type")
}

func (s *slotOptions) slot() versions.Slot {
	return versions.Slot{CaseID: s.CaseID, DocumentType: s.DocumentType}
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	slot := &slotOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every version of a document slot, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := root.client().ListHistory(cmd.Context(), slot.slot())
			if err != nil {
				return err
			}
			if root.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), history)
			}
			return writeVersions(cmd.OutOrStdout(), history)
		},
	}
	slot.bind(cmd)

	return cmd
}
