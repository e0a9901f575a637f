package pizzeria

// Version information, overridden at build time with -ldflags
var (
	// Version is the storefront version
	Version = "development"

	// BuildDate is set during build time
	BuildDate = "development"

	// GitCommit is set during build time
	GitCommit = "unknown"
)
