// Package extract maps raw call transcripts to the structured facts the
// dialogue collects. Extraction is pure string scanning over a fixed
// vocabulary: no model calls, no state, no errors.
package extract

import (
	"regexp"
	"strings"

	"github.com/lhawkeye71/ai-phone-agent/internal/steak"
)

// Record is the partial fact set found in a transcript. Zero values mean
// the slot was not mentioned; absent slots are never defaulted.
type Record struct {
	Name          string
	FavoriteColor string
	Steak         steak.Doneness
}

// Empty reports whether no slot was found.
func (r Record) Empty() bool {
	return r.Name == "" && r.FavoriteColor == "" && r.Steak == ""
}

// Complete reports whether every slot is filled.
func (r Record) Complete() bool {
	return r.Name != "" && r.FavoriteColor != "" && r.Steak != ""
}

// namePatterns are tried in order; the first pattern that matches anywhere
// in the transcript wins and later patterns are not consulted. The captured
// token is taken verbatim.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is ([A-Za-z]+)`),
	regexp.MustCompile(`(?i)\bi'?m ([A-Za-z]+)`),
	regexp.MustCompile(`(?i)\bthis is ([A-Za-z]+)`),
}

// colorVocabulary is scanned in order; the first entry present as a
// substring of the lowered transcript wins. Order, not text position, is
// the tie-break when a transcript mentions several colors.
var colorVocabulary = []string{
	"red",
	"blue",
	"green",
	"yellow",
	"purple",
	"orange",
	"pink",
	"black",
	"white",
	"brown",
	"gray",
}

// donenessVocabulary lists multi-word phrases before the bare "medium" so
// that "medium rare" is never shadowed by its substring.
var donenessVocabulary = []steak.Doneness{
	steak.MediumRare,
	steak.MediumWell,
	steak.WellDone,
	steak.Rare,
	steak.Medium,
}

// Extract scans transcript for the three slots. Case-insensitive,
// deterministic, and idempotent: the same transcript always yields the
// same Record, and an empty transcript yields an empty Record.
func Extract(transcript string) Record {
	var rec Record
	if strings.TrimSpace(transcript) == "" {
		return rec
	}

	for _, p := range namePatterns {
		if m := p.FindStringSubmatch(transcript); m != nil {
			rec.Name = m[1]
			break
		}
	}

	lowered := strings.ToLower(transcript)

	for _, c := range colorVocabulary {
		if strings.Contains(lowered, c) {
			rec.FavoriteColor = c
			break
		}
	}

	for _, d := range donenessVocabulary {
		if strings.Contains(lowered, string(d)) {
			rec.Steak = d
			break
		}
	}

	return rec
}
