package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veracity-tools/lorecheck/internal/dossier"
	"github.com/veracity-tools/lorecheck/internal/model"
	"github.com/veracity-tools/lorecheck/internal/pipeline"
)

var (
	verifyBook      string
	verifyCharacter string
	verifyTimeout   time.Duration
	verifyOutJSON   string
	verifyOutMD     string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim text>",
	Short: "Verify a single claim against an indexed novel",
	Long: `Verify runs one claim through the full pipeline: decomposition into
atomic sub-claims, temporal evidence retrieval, independent support and
contradiction assessments, and verdict synthesis.

The verdict is printed to stdout; pass --json or --md to also write the
full evidence dossier.

Example:
  lorecheck verify --book the_count_of_monte_cristo --character "Abbe Faria" \
    "Faria was imprisoned in the Chateau d'If and tutored Dantes" --md dossier.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyBook, "book", "", "book identifier from the chunk store (required)")
	verifyCmd.Flags().StringVar(&verifyCharacter, "character", "", "character the claim is about")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 10*time.Minute, "overall verification timeout")
	verifyCmd.Flags().StringVar(&verifyOutJSON, "json", "", "write dossier JSON to this path")
	verifyCmd.Flags().StringVar(&verifyOutMD, "md", "", "write dossier Markdown to this path")
	_ = verifyCmd.MarkFlagRequired("book")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

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

	claim := model.Claim{
		ID:        uuid.New().String(),
		Character: verifyCharacter,
		Book:      verifyBook,
		Text:      strings.Join(args, " "),
	}

	d, err := p.VerifyClaim(ctx, claim)
	if err != nil {
		return fmt.Errorf("verify claim: %w", err)
	}

	fmt.Printf("Verdict:    %s\n", d.Aggregate.Verdict)
	fmt.Printf("Confidence: %.2f\n", d.Aggregate.Confidence)
	fmt.Printf("Reasoning:  %s\n", d.Aggregate.Reasoning)
	if len(d.Signals) > 0 {
		fmt.Printf("Signals:    %d degraded condition(s), see dossier\n", len(d.Signals))
	}

	if verifyOutJSON != "" {
		if err := dossier.RenderJSON(d, verifyOutJSON); err != nil {
			return fmt.Errorf("write dossier JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote dossier JSON: %s\n", verifyOutJSON)
	}
	if verifyOutMD != "" {
		if err := dossier.RenderMarkdown(d, verifyOutMD); err != nil {
			return fmt.Errorf("write dossier Markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote dossier Markdown: %s\n", verifyOutMD)
	}

	return nil
}
