package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/agri-api/internal/server"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <image>",
	Short: "classify one leaf photograph and print the diagnosis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := server.NewBundle(cfg)
		defer b.Close()

		b.LoadRemedies()
		b.LoadDisease()
		if b.Pipelines.Disease == nil {
			return b.Pipelines.DiseaseError
		}

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open image")
		}
		defer f.Close()

		d, err := b.Pipelines.Disease.ClassifyReader(f)
		if err != nil {
			return err
		}
		return printJSON(cmd, d)
	},
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
