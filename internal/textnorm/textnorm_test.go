package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Événement", "evenement"},
		{"  Prix   TTC ", "prix ttc"},
		{"N°_Facture", "n° facture"},
		{"Panne Mécanique", "panne mecanique"},
		{"quatre-vingts", "quatre vingts"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Annulé", "ANNULE") {
		t.Fatal("expected accent and case insensitive match")
	}
	if Equal("Annulé", "Complété") {
		t.Fatal("unexpected match")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Mécanique", 3); got != "Méc" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("Truncate = %q", got)
	}
}
