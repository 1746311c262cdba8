package ingest

import (
	"testing"
)

func TestLoadClaims_JSONL(t *testing.T) {
	content := `{"claim_id":"101","character":"Edmond Dantes","book_name":"the_count_of_monte_cristo","claim_text":"Dantes was imprisoned in the Chateau d'If","label":1}

{"character":"Faria","book_name":"the_count_of_monte_cristo","claim_text":"Faria never revealed the treasure"}
`
	path := writeTemp(t, "claims.jsonl", content)

	claims, err := LoadClaims(path)
	if err != nil {
		t.Fatalf("LoadClaims failed: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}

	if claims[0].ID != "101" {
		t.Errorf("expected ID 101, got %s", claims[0].ID)
	}
	if claims[0].Label == nil || *claims[0].Label != 1 {
		t.Error("expected label 1")
	}
	if claims[1].ID == "" {
		t.Error("expected generated ID for claim without one")
	}
	if claims[1].Label != nil {
		t.Error("expected nil label when absent")
	}
}

func TestLoadClaims_JSONL_BadLine(t *testing.T) {
	path := writeTemp(t, "claims.jsonl", "{\"claim_id\":\"1\",\"book_name\":\"b\",\"claim_text\":\"x was y\"}\nnot json\n")
	if _, err := LoadClaims(path); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestLoadClaims_CSV(t *testing.T) {
	content := "claim_id,character,book_name,claim_text,label\n7,Captain Nemo,twenty_thousand_leagues,Nemo vowed never to set foot on land,0\n"
	path := writeTemp(t, "claims.csv", content)

	claims, err := LoadClaims(path)
	if err != nil {
		t.Fatalf("LoadClaims failed: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}

	c := claims[0]
	if c.ID != "7" || c.Character != "Captain Nemo" || c.Book != "twenty_thousand_leagues" {
		t.Errorf("unexpected claim fields: %+v", c)
	}
	if c.Label == nil || *c.Label != 0 {
		t.Error("expected label 0")
	}
}

func TestLoadClaims_CSV_AlternateHeaders(t *testing.T) {
	content := "Story ID,character,book,claim\n12,Ahab,moby_dick,Ahab could not abandon the hunt\n"
	path := writeTemp(t, "claims.csv", content)

	claims, err := LoadClaims(path)
	if err != nil {
		t.Fatalf("LoadClaims failed: %v", err)
	}
	if claims[0].ID != "12" || claims[0].Book != "moby_dick" {
		t.Errorf("unexpected claim fields: %+v", claims[0])
	}
}

func TestLoadClaims_EmptyText(t *testing.T) {
	path := writeTemp(t, "claims.jsonl", `{"claim_id":"1","book_name":"b","claim_text":"  "}`)
	if _, err := LoadClaims(path); err == nil {
		t.Error("expected error for empty claim text")
	}
}

func TestLoadClaims_UnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "claims.xml", "<claims/>")
	if _, err := LoadClaims(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}
