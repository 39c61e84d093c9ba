package extract

import (
	"strings"
	"testing"

	"github.com/lhawkeye71/ai-phone-agent/internal/steak"
)

func TestExtract_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		rec := Extract(in)
		if !rec.Empty() {
			t.Errorf("Extract(%q) = %+v, want empty record", in, rec)
		}
	}
}

func TestExtract_Name(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my name is Alice", "Alice"},
		{"hi, My Name Is Bob, nice to meet you", "Bob"},
		{"I'm Carol", "Carol"},
		{"im dave and i like steak", "dave"},
		{"hello, this is Erin calling", "Erin"},
		{"the weather is nice today", ""},
	}

	for _, tt := range tests {
		rec := Extract(tt.in)
		if rec.Name != tt.want {
			t.Errorf("Extract(%q).Name = %q, want %q", tt.in, rec.Name, tt.want)
		}
	}
}

func TestExtract_NamePatternPriority(t *testing.T) {
	// "my name is" outranks "this is" regardless of position in the text.
	rec := Extract("this is Bob... actually my name is Alice")
	if rec.Name != "Alice" {
		t.Fatalf("Name = %q, want %q", rec.Name, "Alice")
	}
}

func TestExtract_NameVerbatim(t *testing.T) {
	// The captured token keeps the caller's casing.
	rec := Extract("my name is alice")
	if rec.Name != "alice" {
		t.Fatalf("Name = %q, want %q", rec.Name, "alice")
	}
}

func TestExtract_Color(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my favorite color is blue", "blue"},
		{"I love GREEN", "green"},
		{"probably purple I think", "purple"},
		{"no colors here", ""},
	}

	for _, tt := range tests {
		rec := Extract(tt.in)
		if rec.FavoriteColor != tt.want {
			t.Errorf("Extract(%q).FavoriteColor = %q, want %q", tt.in, rec.FavoriteColor, tt.want)
		}
	}
}

func TestExtract_ColorVocabularyOrderWins(t *testing.T) {
	// With several colors mentioned, vocabulary order decides, not text
	// position: red is checked before blue.
	rec := Extract("maybe blue, maybe red")
	if rec.FavoriteColor != "red" {
		t.Fatalf("FavoriteColor = %q, want %q", rec.FavoriteColor, "red")
	}
}

func TestExtract_Doneness(t *testing.T) {
	tests := []struct {
		in   string
		want steak.Doneness
	}{
		{"medium rare please", steak.MediumRare},
		{"I like it Medium Well", steak.MediumWell},
		{"well done for me", steak.WellDone},
		{"rare, always rare", steak.Rare},
		{"just medium", steak.Medium},
		{"no preference stated", ""},
	}

	for _, tt := range tests {
		rec := Extract(tt.in)
		if rec.Steak != tt.want {
			t.Errorf("Extract(%q).Steak = %q, want %q", tt.in, rec.Steak, tt.want)
		}
	}
}

func TestExtract_LongerDonenessPhrasesFirst(t *testing.T) {
	// "medium rare" contains both "medium" and "rare"; the two-word phrase
	// must win.
	rec := Extract("medium rare")
	if rec.Steak != steak.MediumRare {
		t.Fatalf("Steak = %q, want %q", rec.Steak, steak.MediumRare)
	}
}

func TestExtract_AllSlotsInOneUtterance(t *testing.T) {
	rec := Extract("Hi, my name is Grace, my favorite color is orange, and I take my steak medium well.")
	if rec.Name != "Grace" {
		t.Errorf("Name = %q, want Grace", rec.Name)
	}
	if rec.FavoriteColor != "orange" {
		t.Errorf("FavoriteColor = %q, want orange", rec.FavoriteColor)
	}
	if rec.Steak != steak.MediumWell {
		t.Errorf("Steak = %q, want %q", rec.Steak, steak.MediumWell)
	}
	if !rec.Complete() {
		t.Error("expected complete record")
	}
}

func TestExtract_Deterministic(t *testing.T) {
	in := "my name is Henry and I like green and medium steak"
	first := Extract(in)
	for i := 0; i < 5; i++ {
		if got := Extract(in); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestExtract_GrowingTranscriptKeepsEarlierSlots(t *testing.T) {
	// Appending turns never loses a slot found earlier: the earlier text is
	// still part of the scan.
	t1 := "my name is Iris"
	t2 := t1 + "\n" + "what a question! blue, definitely"
	t3 := t2 + "\n" + "medium rare"

	r1 := Extract(t1)
	if r1.Name != "Iris" || r1.FavoriteColor != "" || r1.Steak != "" {
		t.Fatalf("after turn 1: %+v", r1)
	}

	r2 := Extract(t2)
	if r2.Name != "Iris" || r2.FavoriteColor != "blue" {
		t.Fatalf("after turn 2: %+v", r2)
	}

	r3 := Extract(t3)
	if r3.Name != "Iris" || r3.FavoriteColor != "blue" || r3.Steak != steak.MediumRare {
		t.Fatalf("after turn 3: %+v", r3)
	}
	if !r3.Complete() {
		t.Fatal("expected complete record after turn 3")
	}
}

func TestExtract_LargeInput(t *testing.T) {
	filler := strings.Repeat("and then we talked about the weather for a while. ", 200)
	rec := Extract(filler + "my name is Jo and I love pink and want it well done")
	if rec.Name != "Jo" || rec.FavoriteColor != "pink" || rec.Steak != steak.WellDone {
		t.Fatalf("got %+v", rec)
	}
}
