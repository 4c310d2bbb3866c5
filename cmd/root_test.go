package cmd

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/k1LoW/tail"
)

func TestLatestLogs(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []any
	}{
		{"empty", nil, nil},
		{
			"json and plain lines",
			[]string{`{"msg":"displayed image","path":"a.png"}`, "not json", ""},
			[]any{map[string]any{"msg": "displayed image", "path": "a.png"}, "not json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, latestLogs(tt.lines)); diff != "" {
				t.Errorf("latestLogs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLatestLogsFromSession(t *testing.T) {
	buf := tail.New(2)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	logger.Info("displayed image", slog.String("path", "1.png"))
	logger.Info("displayed image", slog.String("path", "2.png"))
	logger.Error("failed to load image", slog.String("path", "3.png"))

	want := []any{
		map[string]any{"level": "INFO", "msg": "displayed image", "path": "2.png"},
		map[string]any{"level": "ERROR", "msg": "failed to load image", "path": "3.png"},
	}
	if diff := cmp.Diff(want, latestLogs(buf.Lines())); diff != "" {
		t.Errorf("latestLogs() mismatch (-want +got):\n%s", diff)
	}
}
