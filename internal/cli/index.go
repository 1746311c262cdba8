package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veracity-tools/lorecheck/internal/index"
	"github.com/veracity-tools/lorecheck/internal/ingest"
	"github.com/veracity-tools/lorecheck/internal/model"
	"github.com/veracity-tools/lorecheck/internal/pipeline"
)

var (
	chunkSize int
	overlap   int
	storeDir  string
	bookName  string
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <novel>...",
	Short: "Chunk novels into a temporal chunk store",
	Long: `Index splits novel text into overlapping chunks, assigns each chunk a
temporal slice (early, middle, or late narrative position), and writes the
chunk store used by verify and batch.

Novels are local files (.txt, .html) or URLs to public-domain archives.

Example:
  lorecheck index novels/in_search_of_lost_time.txt
  lorecheck index https://example.org/texts/count-of-monte-cristo.html --book the_count_of_monte_cristo
  lorecheck index novels/*.txt --chunk-size 1400 --overlap 300`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().IntVar(&chunkSize, "chunk-size", ingest.DefaultChunkSize, "tokens per chunk")
	indexCmd.Flags().IntVar(&overlap, "overlap", ingest.DefaultOverlap, "overlapping tokens between consecutive chunks")
	indexCmd.Flags().StringVar(&storeDir, "store-dir", "chunks", "chunk store output directory")
	indexCmd.Flags().StringVar(&bookName, "book", "", "override book identifier (single novel only)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if bookName != "" && len(args) > 1 {
		return fmt.Errorf("--book applies to a single novel, got %d", len(args))
	}

	cfg := model.DefaultConfig()
	cfg.Index.ChunkSize = chunkSize
	cfg.Index.Overlap = overlap
	cfg.Index.StoreDir = storeDir

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	chunker := ingest.NewChunker(cfg.Index.ChunkSize, cfg.Index.Overlap)
	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes)

	var allChunks []model.Chunk
	for _, arg := range args {
		novel, err := loadOrFetch(ctx, fetcher, arg)
		if err != nil {
			return err
		}

		chunks, err := chunker.Chunk(novel.Book, novel.Text)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", novel.Book, err)
		}

		dist := ingest.Distribution(chunks)
		logger.Info("novel indexed",
			zap.String("book", novel.Book),
			zap.Int("chunks", len(chunks)),
			zap.Int("early", dist[model.SliceEarly]),
			zap.Int("mid", dist[model.SliceMid]),
			zap.Int("late", dist[model.SliceLate]))

		allChunks = append(allChunks, chunks...)
	}

	if err := index.SaveChunks(cfg.Index.StoreDir, allChunks); err != nil {
		return fmt.Errorf("save chunk store: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d novels into %d chunks: %s\n", len(args), len(allChunks), cfg.Index.StoreDir)
	return nil
}

func loadOrFetch(ctx context.Context, fetcher *pipeline.Fetcher, arg string) (*ingest.Novel, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		novel, err := fetcher.Fetch(ctx, arg, bookName)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", arg, err)
		}
		return novel, nil
	}

	novel, err := ingest.LoadNovel(arg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", arg, err)
	}
	if bookName != "" {
		novel.Book = bookName
	}
	return novel, nil
}
