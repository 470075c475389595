package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:           "infer-serve",
	Short:         "Drive the Go inference serving core: batching, caching, hot reload",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// Execute runs the root command, following the teacher's klog.InitFlags + single-binary
// convention (cmd/hive/main.go), merged with the Execute-from-main pattern used by the pack's
// cobra-based CLI (Tutu-Engine-tutuengine's internal/cli.Execute).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
