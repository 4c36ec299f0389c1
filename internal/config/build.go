package config

// Set at link time:
//
//	go build -ldflags "-X onboarding/internal/config.version=1.2.3 \
//	    -X onboarding/internal/config.commit=$(git rev-parse --short HEAD)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linker-injected build metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders the build metadata for startup logs and the CLI version command.
func (b BuildInfo) String() string {
	return b.Version + " (" + b.Commit + ", built " + b.BuildTime + ")"
}
