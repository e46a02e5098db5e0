package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/agri-api/internal/vocab"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "print the disease and crop vocabularies in predictor order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		fmt.Fprintln(w, "INDEX\tDISEASE LABEL\tDISPLAY NAME")
		for i, l := range vocab.DiseaseLabels {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, l, vocab.FormatDiseaseName(l))
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "INDEX\tCROP\tDISPLAY NAME")
		for i, c := range vocab.CropLabels {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, c, vocab.DisplayCrop(c))
		}
		return w.Flush()
	},
}
