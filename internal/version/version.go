// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
)

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a one-line version string.
func (i Info) String() string {
	if i.GitCommit == "unknown" {
		return "encodenode " + i.Version
	}
	return fmt.Sprintf("encodenode %s (%s)", i.Version, i.GitCommit)
}

// Write prints the build metadata as aligned key/value rows.
func (i Info) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%s\n", i.Version)
	fmt.Fprintf(tw, "Git commit:\t%s\n", i.GitCommit)
	fmt.Fprintf(tw, "Build date:\t%s\n", i.BuildDate)
	fmt.Fprintf(tw, "Go version:\t%s\n", i.GoVersion)
	fmt.Fprintf(tw, "Platform:\t%s\n", i.Platform)
	return tw.Flush()
}
