// Package main provides the CLI entry point for the cyber-defense engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuvrajhash/AI-Cyber-God/cmd/cyber-defense/commands"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cyber-defense",
	Short: "Reinforcement-learning cyber-defense strategy engine",
	Long: `A reinforcement-learning strategy engine for automated cyber defense.

It provides:
  - A simulated system-under-attack environment for training
  - A dueling DQN value agent and a Gaussian policy agent
  - Checkpointed training with experience replay
  - Threat-snapshot to defense-recommendation inference`,
	Version: version,
}

func main() {
	rootCmd.AddCommand(commands.TrainCmd)
	rootCmd.AddCommand(commands.RecommendCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.CheckpointCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
