package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/veracity-tools/lorecheck/internal/model"
)

func dossierFor(id string, verdict model.Verdict, conf float64, reasoning string) *model.Dossier {
	return &model.Dossier{
		Claim: model.Claim{ID: id, Character: "Edmond Dantes", Book: "monte_cristo", Text: "claim"},
		Aggregate: model.ClaimVerdict{
			ClaimID:    id,
			Verdict:    verdict,
			Confidence: conf,
			Reasoning:  reasoning,
		},
	}
}

func TestPredictionFor(t *testing.T) {
	tests := []struct {
		verdict model.Verdict
		undet   int
		want    int
	}{
		{model.VerdictSupported, 0, 1},
		{model.VerdictContradicted, 0, 0},
		{model.VerdictContradicted, 1, 0},
		{model.VerdictUndetermined, 0, 0},
		{model.VerdictUndetermined, 1, 1},
	}
	for _, tt := range tests {
		if got := PredictionFor(tt.verdict, tt.undet); got != tt.want {
			t.Errorf("PredictionFor(%s, %d) = %d, want %d", tt.verdict, tt.undet, got, tt.want)
		}
	}
}

func TestRowFor_UndeterminedNamesMapping(t *testing.T) {
	d := dossierFor("42", model.VerdictUndetermined, 0.4, "1 of 2 sub-claims supported, none contradicted")

	row := RowFor(d, 0)
	if row.Prediction != 0 {
		t.Errorf("expected prediction 0, got %d", row.Prediction)
	}
	if !strings.Contains(row.Rationale, "(undetermined mapped to 0)") {
		t.Errorf("rationale must name the mapping, got %q", row.Rationale)
	}
}

func TestRowFor_DeterminedHasNoMappingNote(t *testing.T) {
	d := dossierFor("42", model.VerdictSupported, 0.8, "all 2 sub-claims supported")

	row := RowFor(d, 0)
	if strings.Contains(row.Rationale, "mapped") {
		t.Errorf("determined verdicts must not carry the mapping note, got %q", row.Rationale)
	}
}

func TestRowFor_TruncatesRationale(t *testing.T) {
	long := strings.Repeat("x", 400)
	d := dossierFor("42", model.VerdictContradicted, 0.9, long)

	row := RowFor(d, 0)
	if len(row.Rationale) != maxRationaleChars {
		t.Errorf("expected rationale length %d, got %d", maxRationaleChars, len(row.Rationale))
	}
	if !strings.HasSuffix(row.Rationale, "...") {
		t.Errorf("truncated rationale must end with ellipsis, got %q", row.Rationale)
	}
}

func TestRowFor_TruncatesOnRuneBoundary(t *testing.T) {
	// "è" is two bytes; place it so the byte cut lands mid-rune.
	long := strings.Repeat("x", 146) + strings.Repeat("è", 4)
	d := dossierFor("42", model.VerdictContradicted, 0.9, long)

	row := RowFor(d, 0)
	if !utf8.ValidString(row.Rationale) {
		t.Fatalf("truncated rationale is not valid UTF-8: %q", row.Rationale)
	}
	if len(row.Rationale) > maxRationaleChars {
		t.Errorf("expected rationale length <= %d, got %d", maxRationaleChars, len(row.Rationale))
	}
	if !strings.HasSuffix(row.Rationale, "...") {
		t.Errorf("truncated rationale must end with ellipsis, got %q", row.Rationale)
	}
}

func TestSortRows_NumericAware(t *testing.T) {
	rows := []Row{
		{StoryID: "10"},
		{StoryID: "2"},
		{StoryID: "1"},
	}
	sortRows(rows)

	got := []string{rows[0].StoryID, rows[1].StoryID, rows[2].StoryID}
	want := []string{"1", "2", "10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestSortRows_LexicalFallback(t *testing.T) {
	rows := []Row{
		{StoryID: "b"},
		{StoryID: "a"},
	}
	sortRows(rows)
	if rows[0].StoryID != "a" {
		t.Errorf("expected lexical order for non-numeric IDs, got %v", rows)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	return records
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")

	dossiers := []*model.Dossier{
		dossierFor("2", model.VerdictContradicted, 0.9, "1 of 1 sub-claims contradicted"),
		dossierFor("1", model.VerdictSupported, 0.8, "all 1 sub-claims supported"),
	}

	if err := WriteCSV(path, dossiers, 0); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}

	header := records[0]
	if header[0] != "Story ID" || header[1] != "Prediction" || header[2] != "Rationale" {
		t.Errorf("unexpected header: %v", header)
	}
	if records[1][0] != "1" || records[1][1] != "1" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "2" || records[2][1] != "0" {
		t.Errorf("unexpected second row: %v", records[2])
	}
}

func TestWriteExtendedCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extended.csv")

	dossiers := []*model.Dossier{
		dossierFor("7", model.VerdictSupported, 0.815, "all 1 sub-claims supported"),
	}

	if err := WriteExtendedCSV(path, dossiers, 0); err != nil {
		t.Fatalf("WriteExtendedCSV failed: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(records))
	}
	if len(records[0]) != 7 {
		t.Fatalf("expected 7 columns, got %d", len(records[0]))
	}

	row := records[1]
	if row[3] != "monte_cristo" || row[4] != "Edmond Dantes" {
		t.Errorf("unexpected book/character columns: %v", row)
	}
	if row[5] != "supported" {
		t.Errorf("expected verdict column, got %q", row[5])
	}
	if row[6] != "0.81" {
		t.Errorf("expected confidence formatted to 2 decimals, got %q", row[6])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")

	if err := WriteCSV(path, nil, 0); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Errorf("expected header only, got %d records", len(records))
	}
}
