package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veracity-tools/lorecheck/internal/dossier"
	"github.com/veracity-tools/lorecheck/internal/ingest"
	"github.com/veracity-tools/lorecheck/internal/model"
	"github.com/veracity-tools/lorecheck/internal/pipeline"
	"github.com/veracity-tools/lorecheck/internal/results"
	"github.com/veracity-tools/lorecheck/internal/worker"
)

var (
	claimWorkers    int
	dossierDir      string
	resultsCSV      string
	extendedCSV     string
	batchTimeout    time.Duration
	noDossiers      bool
	batchStatusFile string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <claims-file>",
	Short: "Verify a claims file and write results and dossiers",
	Long: `Batch verifies every claim in a JSONL or CSV claims file concurrently.
Each claim gets a full evidence dossier; verdicts are aggregated into a
results CSV in submission format (Story ID, Prediction, Rationale).

A claim that fails on bad input (unknown book, empty text) is reported
and skipped; the rest of the batch continues.

Example:
  lorecheck batch claims.jsonl
  lorecheck batch claims.csv --workers 8 --results results.csv --dossier-dir ./dossiers`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&claimWorkers, "workers", 4, "number of concurrent claim workers")
	batchCmd.Flags().StringVar(&dossierDir, "dossier-dir", "dossiers", "output directory for dossiers")
	batchCmd.Flags().StringVar(&resultsCSV, "results", "results.csv", "results CSV output path")
	batchCmd.Flags().StringVar(&extendedCSV, "extended", "", "extended results CSV output path (optional)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noDossiers, "no-dossiers", false, "skip writing per-claim dossiers")
	batchCmd.Flags().StringVar(&batchStatusFile, "status-file", "status.json", "progress snapshot file for 'lorecheck status' (empty to disable)")
}

// persistStatus writes a snapshot for the status command. Serialized by a
// mutex since claim workers finish concurrently.
func persistStatus(mu *sync.Mutex, tracker *pipeline.StatusTracker) {
	if batchStatusFile == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	data, err := json.MarshalIndent(tracker.Snapshot(), "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(batchStatusFile, data, 0644)
}

func runBatch(cmd *cobra.Command, args []string) error {
	claimsFile := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if claimWorkers > 0 {
		cfg.Concurrency.ClaimWorkers = claimWorkers
	}
	cfg.Output.DossierDir = dossierDir
	cfg.Output.ResultsCSV = resultsCSV

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	claims, err := ingest.LoadClaims(claimsFile)
	if err != nil {
		return fmt.Errorf("load claims: %w", err)
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", claimsFile)
	}

	tracker := pipeline.NewStatusTracker(len(claims))

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	ix, err := openIndex(ctx, cfg, embedder, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, ix, embedder, logger)
	if err != nil {
		return err
	}

	if !noDossiers {
		if err := os.MkdirAll(cfg.Output.DossierDir, 0755); err != nil {
			return fmt.Errorf("create dossier directory: %w", err)
		}
	}

	tracker.SetStage(pipeline.StageVerifying)
	logger.Info("batch started",
		zap.Int("claims", len(claims)),
		zap.Int("workers", cfg.Concurrency.ClaimWorkers))

	var statusMu sync.Mutex
	persistStatus(&statusMu, tracker)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.ClaimWorkers)
	processor.OnClaimDone(func(claimID string, err error) {
		if err != nil {
			tracker.Advance(fmt.Sprintf("claim %s failed: %v", claimID, err))
		} else {
			tracker.Advance(fmt.Sprintf("claim %s done", claimID))
		}
		persistStatus(&statusMu, tracker)
	})

	batchResults := processor.ProcessClaims(ctx, claims)
	tracker.SetStage(pipeline.StageAggregated)
	tracker.Finish(ctx.Err() != nil)
	persistStatus(&statusMu, tracker)

	var (
		verified []*worker.VerifyResult
		failed   int
	)
	for _, res := range batchResults {
		if res.Error != nil {
			failed++
			logger.Warn("claim failed",
				zap.String("claim_id", res.Claim.ID),
				zap.Error(res.Error))
			continue
		}
		verified = append(verified, res)
	}
	sort.SliceStable(verified, func(i, j int) bool {
		return verified[i].Claim.ID < verified[j].Claim.ID
	})

	dossiers := make([]*model.Dossier, 0, len(verified))
	for _, res := range verified {
		dossiers = append(dossiers, res.Dossier)
		if noDossiers {
			continue
		}
		base := filepath.Join(cfg.Output.DossierDir, res.Claim.ID)
		if err := dossier.RenderJSON(res.Dossier, base+".json"); err != nil {
			return fmt.Errorf("write dossier for %s: %w", res.Claim.ID, err)
		}
		if err := dossier.RenderMarkdown(res.Dossier, base+".md"); err != nil {
			return fmt.Errorf("write dossier for %s: %w", res.Claim.ID, err)
		}
	}

	if err := results.WriteCSV(cfg.Output.ResultsCSV, dossiers, cfg.Output.UndeterminedPrediction); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if extendedCSV != "" {
		if err := results.WriteExtendedCSV(extendedCSV, dossiers, cfg.Output.UndeterminedPrediction); err != nil {
			return fmt.Errorf("write extended results: %w", err)
		}
	}

	status := tracker.Snapshot()
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Batch complete in %s\n", time.Since(status.StartedAt).Round(time.Second))
	fmt.Fprintf(os.Stderr, "  Claims:    %d\n", len(claims))
	fmt.Fprintf(os.Stderr, "  Verified:  %d\n", len(verified))
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Results:   %s\n", cfg.Output.ResultsCSV)
	if !noDossiers {
		fmt.Fprintf(os.Stderr, "  Dossiers:  %s\n", cfg.Output.DossierDir)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d claims failed", failed, len(claims))
	}
	return nil
}
