package main

import (
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/agri-api/internal/crop"
	"github.com/Brownie44l1/agri-api/internal/server"
)

var sample = crop.DefaultSample()

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "recommend a crop for one set of soil and climate measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := server.NewBundle(cfg)
		defer b.Close()

		b.LoadCrop()
		if b.Pipelines.Crop == nil {
			return b.Pipelines.CropError
		}

		rec, err := b.Pipelines.Crop.Recommend(sample)
		if err != nil {
			return err
		}
		return printJSON(cmd, rec)
	},
}

func init() {
	flags := recommendCmd.Flags()
	flags.Float64Var(&sample.N, "n", sample.N, "nitrogen, kg/ha (0-150)")
	flags.Float64Var(&sample.P, "p", sample.P, "phosphorus, kg/ha (0-150)")
	flags.Float64Var(&sample.K, "k", sample.K, "potassium, kg/ha (0-200)")
	flags.Float64Var(&sample.Temperature, "temperature", sample.Temperature, "temperature, °C (0-50)")
	flags.Float64Var(&sample.Humidity, "humidity", sample.Humidity, "relative humidity, % (0-100)")
	flags.Float64Var(&sample.PH, "ph", sample.PH, "soil pH (0-14)")
	flags.Float64Var(&sample.Rainfall, "rainfall", sample.Rainfall, "rainfall, mm (0-3000)")
}
