// Package commands provides CLI command implementations.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appDefense "github.com/yuvrajhash/AI-Cyber-God/internal/application/defense"
	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
	"github.com/yuvrajhash/AI-Cyber-God/internal/infrastructure/history"
)

var (
	trainValueEpisodes  int
	trainPolicyEpisodes int
	trainCheckpoint     string
	trainHistoryDB      string
	trainSeed           int64
)

// TrainCmd runs a full training pass and writes the checkpoint artifact.
var TrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the defense agents",
	Long: `Run a full training pass: DQN value-agent episodes against the simulated
environment, then policy-gradient episodes, then write the checkpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := domainDefense.DefaultEngineConfig()
		config.CheckpointPath = trainCheckpoint
		config.Environment.Seed = trainSeed
		config.ValueAgent.Seed = trainSeed
		config.PolicyAgent.Seed = trainSeed

		engine := appDefense.NewEngine(config)

		if trainHistoryDB != "" {
			store, err := history.NewStore(history.StoreConfig{DBPath: trainHistoryDB, MaxEpisodes: 100000})
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()
			engine.SetHistory(store)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := engine.Train(ctx, trainValueEpisodes, trainPolicyEpisodes); err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		out, err := json.MarshalIndent(engine.Stats(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	TrainCmd.Flags().IntVar(&trainValueEpisodes, "value-episodes", 1000, "DQN training episodes")
	TrainCmd.Flags().IntVar(&trainPolicyEpisodes, "policy-episodes", 500, "policy gradient training episodes")
	TrainCmd.Flags().StringVar(&trainCheckpoint, "checkpoint", "models/rl_agent.json", "checkpoint artifact path")
	TrainCmd.Flags().StringVar(&trainHistoryDB, "history-db", "", "SQLite episode history path (empty disables)")
	TrainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "PRNG seed (0 means time-based)")
}
