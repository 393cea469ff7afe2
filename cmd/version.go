package cmd

import (
	"encoding/json"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is overwritten at build time:
//
//	go build -ldflags "-X github.com/derickschaefer/workwatch/cmd.Version=v0.2.0"
var Version = "v0.1.0"

// BuildTime is optionally injected alongside Version.
var BuildTime = ""

// versionInfo is the payload for machine-readable version output.
type versionInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	BuildTime string `json:"build_time,omitempty"`
}

// currentVersion collects build metadata. The VCS revision comes from the
// module build info when the binary was built inside a checkout.
func currentVersion() versionInfo {
	info := versionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Revision = s.Value
				if len(info.Revision) > 12 {
					info.Revision = info.Revision[:12]
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

func (v versionInfo) rows() [][]string {
	rows := [][]string{{"workwatch", v.Version}}
	if v.Revision != "" {
		rev := v.Revision
		if v.Modified {
			rev += " (modified)"
		}
		rows = append(rows, []string{"revision", rev})
	}
	rows = append(rows, []string{"go", v.GoVersion}, []string{"os", v.Platform})
	if v.BuildTime != "" {
		rows = append(rows, []string{"built", v.BuildTime})
	}
	return rows
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the workwatch version and build information",
	Example: `  workwatch version
  workwatch version --format json | jq .version`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersion()
		switch globalFlags.Format {
		case "json", "jsonl":
			enc := json.NewEncoder(cmd.OutOrStdout())
			if globalFlags.Format == "json" {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(info)
		default:
			printKVTable(cmd.OutOrStdout(), info.rows())
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
