package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// maxRationaleChars bounds the rationale column in the submission format
const maxRationaleChars = 150

// Row is one verdict in the two-valued output format. The format has no
// third state, so UNDETERMINED maps to a configured default and the mapping
// is named in the rationale rather than left implicit.
type Row struct {
	StoryID    string
	Prediction int // 1=supported/consistent, 0=contradicted
	Rationale  string
	Book       string
	Character  string
	Verdict    model.Verdict
	Confidence float64
}

// PredictionFor maps a verdict into the binary output format.
// undeterminedDefault is the caller-chosen encoding for UNDETERMINED.
func PredictionFor(v model.Verdict, undeterminedDefault int) int {
	switch v {
	case model.VerdictSupported:
		return 1
	case model.VerdictContradicted:
		return 0
	default:
		return undeterminedDefault
	}
}

// RowFor builds the output row for one dossier
func RowFor(d *model.Dossier, undeterminedDefault int) Row {
	rationale := d.Aggregate.Reasoning
	if d.Aggregate.Verdict == model.VerdictUndetermined {
		rationale = fmt.Sprintf("%s (undetermined mapped to %d)", rationale, undeterminedDefault)
	}
	if len(rationale) > maxRationaleChars {
		// Back up to a rune start so character names like "Dantès" are
		// never split into invalid UTF-8.
		cut := maxRationaleChars - 3
		for cut > 0 && !utf8.RuneStart(rationale[cut]) {
			cut--
		}
		rationale = rationale[:cut] + "..."
	}
	return Row{
		StoryID:    d.Claim.ID,
		Prediction: PredictionFor(d.Aggregate.Verdict, undeterminedDefault),
		Rationale:  rationale,
		Book:       d.Claim.Book,
		Character:  d.Claim.Character,
		Verdict:    d.Aggregate.Verdict,
		Confidence: d.Aggregate.Confidence,
	}
}

// WriteCSV writes the three-column submission format, sorted by story ID
// (numerically when IDs are numeric).
func WriteCSV(path string, dossiers []*model.Dossier, undeterminedDefault int) error {
	rows := make([]Row, 0, len(dossiers))
	for _, d := range dossiers {
		rows = append(rows, RowFor(d, undeterminedDefault))
	}
	sortRows(rows)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Story ID", "Prediction", "Rationale"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.StoryID, strconv.Itoa(row.Prediction), row.Rationale}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteExtendedCSV writes the dashboard format with verdict and confidence
func WriteExtendedCSV(path string, dossiers []*model.Dossier, undeterminedDefault int) error {
	rows := make([]Row, 0, len(dossiers))
	for _, d := range dossiers {
		rows = append(rows, RowFor(d, undeterminedDefault))
	}
	sortRows(rows)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create extended results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Story ID", "Prediction", "Rationale", "book_name", "character", "verdict", "confidence"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.StoryID,
			strconv.Itoa(row.Prediction),
			row.Rationale,
			row.Book,
			row.Character,
			string(row.Verdict),
			strconv.FormatFloat(row.Confidence, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, errA := strconv.Atoi(rows[i].StoryID)
		b, errB := strconv.Atoi(rows[j].StoryID)
		if errA == nil && errB == nil {
			return a < b
		}
		return rows[i].StoryID < rows[j].StoryID
	})
}
