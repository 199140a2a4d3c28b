package config

import "testing"

func TestNormalizePlatformAliases(t *testing.T) {
	cases := map[string]string{
		"Twitter":   "x",
		"X":         "x",
		" x ":       "x",
		"LinkedIn":  "linkedin",
		"IG":        "instagram",
		"FB":        "facebook",
		"YT":        "youtube",
		"TikTok":    "tiktok",
		"Mastodon":  "mastodon", // unknown passes through lowercased
		"Pinterest": "pinterest",
	}
	for in, want := range cases {
		if got := NormalizePlatform(in); got != want {
			t.Fatalf("NormalizePlatform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrendSourcesUnionDeduplicates(t *testing.T) {
	cfg := &Config{}
	domains := cfg.TrendSourcesFor([]string{"Twitter", "X", "LinkedIn"})
	seen := make(map[string]int)
	for _, d := range domains {
		seen[d]++
		if seen[d] > 1 {
			t.Fatalf("domain %q appears more than once", d)
		}
	}
	if len(domains) == 0 {
		t.Fatal("expected non-empty domain union for known platforms")
	}
}

func TestTrendSourcesConfigOverride(t *testing.T) {
	cfg := &Config{Platforms: PlatformsConfig{TrendSources: map[string][]string{
		"x": {"example.com"},
	}}}
	got := cfg.TrendSources("Twitter")
	if len(got) != 1 || got[0] != "example.com" {
		t.Fatalf("expected override to win, got %v", got)
	}
	if len(cfg.TrendSources("linkedin")) == 0 {
		t.Fatal("platforms without override should fall back to defaults")
	}
}

func TestTrendSourcesUnknownPlatform(t *testing.T) {
	cfg := &Config{}
	if got := cfg.TrendSources("friendster"); got != nil {
		t.Fatalf("expected nil for unknown platform, got %v", got)
	}
}
