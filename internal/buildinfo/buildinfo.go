// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/uonline/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/uonline/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/uonline/internal/buildinfo.BuildDate=...
var BuildDate = ""

// UserAgent returns the product token sent to upstream APIs.
func UserAgent() string {
	if Version == "" {
		return "uonline/dev"
	}
	return "uonline/" + Version
}

// Release returns the identifier reported to error tracking.
func Release() string {
	switch {
	case Version != "" && Commit != "":
		return Version + "+" + Commit
	case Version != "":
		return Version
	default:
		return Commit
	}
}
