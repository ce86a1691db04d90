package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appDefense "github.com/yuvrajhash/AI-Cyber-God/internal/application/defense"
	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
	"github.com/yuvrajhash/AI-Cyber-God/internal/infrastructure/archive"
)

var (
	recommendThreats    int
	recommendSeverity   float64
	recommendHealth     float64
	recommendCheckpoint string
	recommendArchive    bool
)

// RecommendCmd produces defense recommendations for a threat snapshot.
var RecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get defense recommendations for a threat snapshot",
	Long: `Map a threat snapshot into the engine's state representation, select a
defense action with the trained agents, and print the prioritized
recommendations. Trains from scratch (abbreviated) when no checkpoint exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := domainDefense.DefaultEngineConfig()
		config.CheckpointPath = recommendCheckpoint

		engine := appDefense.NewEngine(config)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := engine.Start(ctx); err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}

		rec, err := engine.Recommend(ctx, domainDefense.ThreatState{
			ActiveThreats: recommendThreats,
			AvgSeverity:   recommendSeverity,
			SystemHealth:  recommendHealth,
		})
		if err != nil {
			return fmt.Errorf("failed to produce recommendations: %w", err)
		}

		if recommendArchive {
			archiveRecommendation(ctx, rec)
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// archiveRecommendation ships the recommendation set to PostgreSQL when the
// PG* environment is configured. Failures are logged, never fatal.
func archiveRecommendation(ctx context.Context, rec domainDefense.DefenseRecommendation) {
	config := archive.ConfigFromEnv()
	if !config.Enabled() {
		log.Printf("recommendation archive disabled: PGDATABASE not set")
		return
	}

	store := archive.New(config)
	if err := store.Connect(ctx); err != nil {
		log.Printf("failed to connect recommendation archive: %v", err)
		return
	}
	defer store.Close()

	if err := store.Store(ctx, rec); err != nil {
		log.Printf("failed to archive recommendation: %v", err)
	}
}

func init() {
	RecommendCmd.Flags().IntVar(&recommendThreats, "active-threats", 10, "number of active threats")
	RecommendCmd.Flags().Float64Var(&recommendSeverity, "avg-severity", 0.5, "mean threat severity in [0,1]")
	RecommendCmd.Flags().Float64Var(&recommendHealth, "system-health", 0.8, "system health in [0,1]")
	RecommendCmd.Flags().StringVar(&recommendCheckpoint, "checkpoint", "models/rl_agent.json", "checkpoint artifact path")
	RecommendCmd.Flags().BoolVar(&recommendArchive, "archive", false, "archive the recommendation set to PostgreSQL")
}
