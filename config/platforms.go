package config

import "strings"

// defaultTrendSources maps canonical platform keys to the domains most likely
// to surface trends relevant to that platform. Keys must be canonical (see
// NormalizePlatform); values are used as discovery allowlists.
var defaultTrendSources = map[string][]string{
	"x": {
		"trends24.in", "getdaytrends.com", "socialmediatoday.com",
	},
	"linkedin": {
		"linkedin.com", "socialmediatoday.com", "hubspot.com", "marketingweek.com",
	},
	"instagram": {
		"later.com", "socialinsider.io", "hootsuite.com",
	},
	"tiktok": {
		"tiktok.com", "tokboard.com", "socialmediatoday.com",
	},
	"pinterest": {
		"pinterest.com", "tailwindapp.com",
	},
	"facebook": {
		"socialmediatoday.com", "sproutsocial.com",
	},
	"youtube": {
		"youtube.com", "tubefilter.com", "vidiq.com",
	},
}

// NormalizePlatform folds a user-supplied platform name onto its canonical
// key. Total: unknown platforms pass through lowercased.
func NormalizePlatform(platform string) string {
	p := strings.ToLower(strings.TrimSpace(platform))
	switch p {
	case "x", "twitter", "x (twitter)", "twitter/x":
		return "x"
	case "ig", "insta", "instagram":
		return "instagram"
	case "fb", "facebook":
		return "facebook"
	case "yt", "youtube":
		return "youtube"
	default:
		return p
	}
}

// TrendSources returns the domain allowlist for a platform, honouring
// config overrides before the built-in defaults. Unknown platforms get nil.
func (c *Config) TrendSources(platform string) []string {
	key := NormalizePlatform(platform)
	if c != nil && c.Platforms.TrendSources != nil {
		if domains, ok := c.Platforms.TrendSources[key]; ok {
			return domains
		}
	}
	return defaultTrendSources[key]
}

// TrendSourcesFor collects the deduplicated union of allowlists across
// platforms, preserving first-seen order.
func (c *Config) TrendSourcesFor(platforms []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range platforms {
		for _, d := range c.TrendSources(p) {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}
