package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appDefense "github.com/yuvrajhash/AI-Cyber-God/internal/application/defense"
	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
	"github.com/yuvrajhash/AI-Cyber-God/internal/infrastructure/history"
)

var (
	statusCheckpoint string
	statusHistoryDB  string
	statusEpisodes   int
)

// StatusCmd reports training state from the checkpoint and episode history.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show training status and recent episode history",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := domainDefense.DefaultEngineConfig()
		config.CheckpointPath = statusCheckpoint

		engine := appDefense.NewEngine(config)
		if err := engine.LoadCheckpoint(); err != nil {
			fmt.Printf("checkpoint: unavailable (%v)\n", err)
		}

		out, err := json.MarshalIndent(engine.Stats(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if statusHistoryDB == "" {
			return nil
		}

		store, err := history.NewStore(history.StoreConfig{DBPath: statusHistoryDB, MaxEpisodes: 100000})
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		records, err := store.RecentEpisodes(statusEpisodes)
		if err != nil {
			return fmt.Errorf("failed to read episode history: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PHASE\tEPISODE\tREWARD\tLENGTH\tEPSILON")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%d\t%.3f\n",
				rec.Phase, rec.Episode, rec.Reward, rec.Length, rec.Epsilon)
		}
		return w.Flush()
	},
}

func init() {
	StatusCmd.Flags().StringVar(&statusCheckpoint, "checkpoint", "models/rl_agent.json", "checkpoint artifact path")
	StatusCmd.Flags().StringVar(&statusHistoryDB, "history-db", "", "SQLite episode history path")
	StatusCmd.Flags().IntVar(&statusEpisodes, "episodes", 20, "number of recent episodes to show")
}
