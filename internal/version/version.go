// Package version carries build metadata set with -ldflags.
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build metadata for logs and -version.
func String() string {
	return "pitchside " + Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
