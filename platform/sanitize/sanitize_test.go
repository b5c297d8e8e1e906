package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain   text\n here", "plain text here"},
		{"<p>Fresh <strong>bread</strong></p><p>daily</p>", "Fresh bread daily"},
		{"Tom &amp; Jerry&#8217;s", "Tom & Jerry’s"},
		{"<style>p{color:red}</style>Hello<script>alert(1)</script>", "Hello"},
		{"line<br/>break", "line break"},
		{"<p>unclosed", "unclosed"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Fatalf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("expected untouched string, got %q", got)
	}
	got := Truncate("Handmade sourdough and rye loaves baked every morning", 20)
	if got != "Handmade sourdough..." {
		t.Fatalf("expected word-boundary cut, got %q", got)
	}
	if got := Truncate("ééééééééééé", 5); got != "ééééé..." {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}
