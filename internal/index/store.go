package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veracity-tools/lorecheck/internal/ingest"
	"github.com/veracity-tools/lorecheck/internal/model"
)

const (
	chunksFileName   = "chunks.jsonl"
	metadataFileName = "metadata.json"
)

// StoreMetadata summarizes a persisted chunk corpus
type StoreMetadata struct {
	TotalChunks int                         `json:"total_chunks"`
	Books       []string                    `json:"books"`
	Temporal    map[model.TemporalSlice]int `json:"temporal_distribution"`
	PerBook     map[string]map[string]int   `json:"per_book,omitempty"`
}

// SaveChunks persists the chunk corpus to dir as JSONL plus a metadata file
func SaveChunks(dir string, chunks []model.Chunk) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, chunksFileName))
	if err != nil {
		return fmt.Errorf("create chunks file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	for _, ch := range chunks {
		line, err := json.Marshal(ch)
		if err != nil {
			return fmt.Errorf("marshal chunk %s: %w", ch.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush chunks: %w", err)
	}

	meta := buildMetadata(chunks)
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFileName), metaData, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// LoadChunks reads a persisted chunk corpus from dir
func LoadChunks(dir string) ([]model.Chunk, error) {
	f, err := os.Open(filepath.Join(dir, chunksFileName))
	if err != nil {
		return nil, fmt.Errorf("open chunks file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var chunks []model.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ch model.Chunk
		if err := json.Unmarshal(line, &ch); err != nil {
			return nil, fmt.Errorf("parse chunk line: %w", err)
		}
		chunks = append(chunks, ch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chunks file: %w", err)
	}

	return chunks, nil
}

func buildMetadata(chunks []model.Chunk) StoreMetadata {
	meta := StoreMetadata{
		TotalChunks: len(chunks),
		Temporal:    ingest.Distribution(chunks),
		PerBook:     make(map[string]map[string]int),
	}

	seen := make(map[string]bool)
	for _, ch := range chunks {
		if !seen[ch.Book] {
			seen[ch.Book] = true
			meta.Books = append(meta.Books, ch.Book)
		}
		perBook, ok := meta.PerBook[ch.Book]
		if !ok {
			perBook = make(map[string]int)
			meta.PerBook[ch.Book] = perBook
		}
		perBook[string(ch.Slice)]++
	}

	return meta
}
