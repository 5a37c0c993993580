package version

// Overridden at build time via -ldflags "-X fedindex/internal/version.Version=...".
var Version = "0.1.0-dev"

func String() string {
	return Version
}
