package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"flyc/internal/version"
)

// buildInfo is what `flyc version` prints; empty optional fields are
// left out of both formats.
type buildInfo struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show flyc build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	f := versionCmd.Flags()
	f.Bool("hash", false, "include git commit hash")
	f.Bool("message", false, "include git commit message")
	f.Bool("date", false, "include build timestamp")
	f.Bool("full", false, "show all recorded build metadata")
	f.String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	format, _ := f.GetString("format")
	full, _ := f.GetBool("full")
	want := func(name string) bool {
		on, _ := f.GetBool(name)
		return on || full
	}

	info := buildInfo{Tool: "flyc", Version: orDefault(version.Version, "dev")}
	if want("hash") {
		info.GitCommit = orDefault(version.GitCommit, "unknown")
	}
	if want("message") {
		info.GitMessage = orDefault(version.GitMessage, "unknown")
	}
	if want("date") {
		info.BuildDate = orDefault(version.BuildDate, "unknown")
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "pretty":
		printBuildInfo(out, info)
		return nil
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}

func printBuildInfo(w io.Writer, info buildInfo) {
	fmt.Fprintf(w, "%s %s\n", info.Tool, version.Colored(info.Version))
	for _, row := range [][2]string{
		{"commit", info.GitCommit},
		{"message", info.GitMessage},
		{"built", info.BuildDate},
	} {
		if row[1] != "" {
			fmt.Fprintf(w, "%-8s %s\n", row[0]+":", row[1])
		}
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
