package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

var checkpointPath string

// CheckpointCmd inspects the checkpoint artifact without loading it into an
// engine.
var CheckpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect the checkpoint artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(checkpointPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no checkpoint at %s", checkpointPath)
			}
			return fmt.Errorf("failed to read checkpoint: %w", err)
		}

		var checkpoint domainDefense.Checkpoint
		if err := json.Unmarshal(data, &checkpoint); err != nil {
			return fmt.Errorf("checkpoint is corrupted: %w", err)
		}

		var weightCount int
		for _, slabs := range []map[string][]float64{
			checkpoint.ValueWeights, checkpoint.TargetWeights, checkpoint.PolicyWeights,
		} {
			for _, slab := range slabs {
				weightCount += len(slab)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", checkpoint.ID)
		fmt.Fprintf(w, "Created\t%s\n", checkpoint.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Trained\t%v\n", checkpoint.Trained)
		fmt.Fprintf(w, "Epsilon\t%.4f\n", checkpoint.Epsilon)
		fmt.Fprintf(w, "Training steps\t%d\n", checkpoint.TrainingStep)
		fmt.Fprintf(w, "Episodes\t%d\n", len(checkpoint.EpisodeRewards))
		fmt.Fprintf(w, "Weights\t%d\n", weightCount)
		fmt.Fprintf(w, "Size\t%d bytes\n", len(data))
		return w.Flush()
	},
}

func init() {
	CheckpointCmd.Flags().StringVar(&checkpointPath, "checkpoint", "models/rl_agent.json", "checkpoint artifact path")
}
