package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateCountsRunesNotBytes(t *testing.T) {
	// Every rune here is multibyte; a byte-indexed cut would split one.
	content := strings.Repeat("şğüöçİı", 20)

	got := truncate(content, 80)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated output is not valid UTF-8: %q", got)
	}
	if want := string([]rune(content)[:80]) + "…"; got != want {
		t.Fatalf("truncate = %q, want %q", got, want)
	}
}

func TestTruncateLeavesShortStringsAlone(t *testing.T) {
	for _, s := range []string{"", "kısa metin", strings.Repeat("a", 80)} {
		if got := truncate(s, 80); got != s {
			t.Fatalf("truncate(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestAccountID(t *testing.T) {
	cases := map[string]string{
		"gopher":      "acct:gopher",
		"@gopher":     "acct:gopher",
		" @gopher ":   "acct:gopher",
		"acct:gopher": "acct:gopher",
	}
	for in, want := range cases {
		if got := accountID(in); got != want {
			t.Fatalf("accountID(%q) = %q, want %q", in, got, want)
		}
	}
}
