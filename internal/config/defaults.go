package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
		},
		Cache: Cache{
			Dir:              "~/.cache/mediaid",
			HitTTLHours:      168,
			NegativeTTLHours: 6,
		},
		Matcher: Matcher{
			AcceptThreshold: 0.6,
			ShortenFloor:    0.6,
			MaxAttempts:     4,
			NetworkRetries:  3,
			RequestTimeout:  10,
		},
		QBittorrent: QBittorrent{
			URL:      "http://localhost:8080",
			Username: "admin",
		},
		Probe: Probe{
			Enabled: true,
			Binary:  "ffprobe",
			Timeout: 30,
		},
		Output: Output{
			Dir:           "~/mediaid/output",
			CreateNFO:     true,
			ExportTorrent: true,
		},
		Naming: Naming{
			DefaultGroup: "NOGRP",
			MultiLabel:   "MULTi",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
			Dir:    "~/.local/share/mediaid/logs",
		},
	}
}
