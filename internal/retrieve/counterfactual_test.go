package retrieve

import "testing"

func TestCounterfactual(t *testing.T) {
	tests := []struct {
		name      string
		claim     string
		character string
		want      string
	}{
		{
			name:      "was becomes was not",
			claim:     "Dantes was imprisoned",
			character: "Dantes",
			want:      "Dantes: dantes was not imprisoned",
		},
		{
			name:      "first matching pattern wins",
			claim:     "He was loyal and could fight",
			character: "Morrel",
			want:      "Morrel: he was not loyal and could fight",
		},
		{
			name:      "always becomes never",
			claim:     "she always kept the letters",
			character: "Mercedes",
			want:      "Mercedes: she never kept the letters",
		},
		{
			name:      "no pattern leaves text unchanged",
			claim:     "Nemo commands the Nautilus",
			character: "Nemo",
			want:      "Nemo: Nemo commands the Nautilus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Counterfactual(tt.claim, tt.character); got != tt.want {
				t.Errorf("Counterfactual(%q) = %q, want %q", tt.claim, got, tt.want)
			}
		})
	}
}

func TestDirect(t *testing.T) {
	if got := Direct("Dantes escaped", "Edmond Dantes"); got != "Edmond Dantes: Dantes escaped" {
		t.Errorf("unexpected direct query: %q", got)
	}
}
