package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gozero/infercore/internal/modelfile"

	_ "github.com/gozero/infercore/internal/gomlxmodel" // registers the "gomlx" engine
)

func init() {
	rootCmd.AddCommand(modelInfoCmd)
	rootCmd.AddCommand(enginesCmd)
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the registered non-random engine ids",
	RunE:  runEngines,
}

func runEngines(cmd *cobra.Command, args []string) error {
	for _, engine := range modelfile.RegisteredEngines() {
		fmt.Fprintln(cmd.OutOrStdout(), engine)
	}
	return nil
}

var modelInfoCmd = &cobra.Command{
	Use:   "model-info <factory-spec>",
	Short: "Load a model and print its feature descriptor and identity",
	Long: `model-info constructs a Backend Model from a factory path string (spec §6):
  <engine>,<path>
  <engine>:<device>,<path>
  random:<seed>,<policy_stddev>:<value_stddev>
and prints the resulting model's name and feature descriptor.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelInfo,
}

func runModelInfo(cmd *cobra.Command, args []string) error {
	m, err := modelfile.NewFromSpec(args[0])
	if err != nil {
		return err
	}
	defer m.Close()

	d := m.FeatureDescriptor()
	fmt.Fprintf(cmd.OutOrStdout(), "name:        %s\n", m.Name())
	fmt.Fprintf(cmd.OutOrStdout(), "feature family: %s\n", d.Family)
	fmt.Fprintf(cmd.OutOrStdout(), "layout:      %s\n", d.Layout)
	fmt.Fprintf(cmd.OutOrStdout(), "plane count: %d\n", d.PlaneCount)
	return nil
}
