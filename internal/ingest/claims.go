package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// maxClaimLineBytes bounds a single JSONL record
const maxClaimLineBytes = 1 << 20

// LoadClaims reads a claims file in JSONL or CSV form, chosen by extension.
// Records missing an ID are assigned a generated one so downstream output
// rows stay addressable.
func LoadClaims(path string) ([]model.Claim, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return loadClaimsJSONL(path)
	case ".csv":
		return loadClaimsCSV(path)
	default:
		return nil, fmt.Errorf("unsupported claims format %q (want .jsonl or .csv)", filepath.Ext(path))
	}
}

func loadClaimsJSONL(path string) ([]model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var claims []model.Claim
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxClaimLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var c model.Claim
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("claims line %d: %w", line, err)
		}
		if err := validateClaim(&c); err != nil {
			return nil, fmt.Errorf("claims line %d: %w", line, err)
		}
		claims = append(claims, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}
	return claims, nil
}

func loadClaimsCSV(path string) ([]model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read claims header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(record []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
		}
		return ""
	}

	var claims []model.Claim
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("claims line %d: %w", line, err)
		}
		c := model.Claim{
			ID:        field(record, "claim_id", "story id", "id"),
			Character: field(record, "character", "char"),
			Book:      field(record, "book_name", "book"),
			Text:      field(record, "claim_text", "claim", "content"),
		}
		if raw := field(record, "label"); raw != "" {
			label, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("claims line %d: label %q: %w", line, raw, err)
			}
			c.Label = &label
		}
		if err := validateClaim(&c); err != nil {
			return nil, fmt.Errorf("claims line %d: %w", line, err)
		}
		claims = append(claims, c)
	}
	return claims, nil
}

func validateClaim(c *model.Claim) error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("claim has empty text")
	}
	if strings.TrimSpace(c.Book) == "" {
		return fmt.Errorf("claim has empty book name")
	}
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
