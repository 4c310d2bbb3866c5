/*
Copyright © 2025 Ken'ichiro Oyama <k1lowxb@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/inkcard/config"
	"github.com/k1LoW/inkcard/version"
	"github.com/k1LoW/tail"
	"github.com/spf13/cobra"
)

const latestLogLines = 1000

var (
	profile string
	// tb keeps the latest log lines for error.json
	tb = tail.New(latestLogLines)
)

var rootCmd = &cobra.Command{
	Use:          "inkcard",
	Short:        "inkcard renders text cards and plays them on e-paper panels",
	Long:         `inkcard renders text cards and plays them on e-paper panels.`,
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (rev:%s)", version.Version, version.Revision),
}

type errorData struct {
	LatestLogs  []any     `json:"latest_logs"`
	Error       string    `json:"error"`
	StackTraces any       `json:"stack_traces"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	Revision    string    `json:"revision"`
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		d := &errorData{
			LatestLogs:  latestLogs(tb.Lines()),
			Error:       err.Error(),
			StackTraces: errors.StackTraces(err),
			CreatedAt:   time.Now(),
			Version:     version.Version,
			Revision:    version.Revision,
		}
		b, err := json.Marshal(d)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if os.Getenv("INKCARD_DEBUG") != "" {
			_, _ = fmt.Fprintf(os.Stderr, "%s\n", b)
		}
		// Write stack trace log to state directory
		dir := config.StateHomePath()
		if err := os.MkdirAll(dir, 0o700); err == nil {
			dumpPath := filepath.Join(dir, "error.json")
			if err := os.WriteFile(dumpPath, b, 0o600); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "failed to write error.json to %s: %v\n", dumpPath, err)
			}
		}
		os.Exit(1)
	}
}

// latestLogs decodes JSON log lines, keeping undecodable ones as plain strings.
func latestLogs(lines []string) []any {
	var logs []any
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			logs = append(logs, line)
		} else {
			logs = append(logs, m)
		}
	}
	return logs
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "", "", "profile name")
}
