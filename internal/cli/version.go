package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE:  a.runVersion,
	}
}

func (a *app) runVersion(cmd *cobra.Command, args []string) error {
	info := versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if a.jsonOut {
		return a.outputJSON(info)
	}

	fmt.Fprintf(a.out, "ephemeraldb %s (%s, %s)\n", info.Version, shortCommit(), shortDate())
	fmt.Fprintf(a.out, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(a.out, "Platform: %s\n", info.Platform)
	return nil
}
