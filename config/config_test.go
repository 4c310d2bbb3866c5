package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func setConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configHomePath = ""
	t.Cleanup(func() { configHomePath = "" })
	dir := filepath.Join(tmpDir, "inkcard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create config directory: %v", err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		profile string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:  "no config file",
			files: nil,
			want:  &Config{},
		},
		{
			name: "full config",
			files: map[string]string{
				"config.yml": `
padding: 10
output: card.png
font: /fonts/a.ttf
canvas:
  width: 640
  height: 320
pixelWrap: true
show:
  dir: /srv/pics
  interval: 30s
  driver: command
  command: "epd-push {{op}}"
  dedupe: false
`,
			},
			want: &Config{
				Padding:   intPtr(10),
				Output:    "card.png",
				Font:      "/fonts/a.ttf",
				Canvas:    &Canvas{Width: 640, Height: 320},
				PixelWrap: boolPtr(true),
				Show: Show{
					Dir:      "/srv/pics",
					Interval: Duration(30 * time.Second),
					Driver:   "command",
					Command:  "epd-push {{op}}",
					Dedupe:   boolPtr(false),
				},
			},
		},
		{
			name: "profile takes precedence",
			files: map[string]string{
				"config.yml":        "output: default.jpg\n",
				"config-frame.yaml": "output: frame.jpg\n",
			},
			profile: "frame",
			want:    &Config{Output: "frame.jpg"},
		},
		{
			name: "missing profile falls back",
			files: map[string]string{
				"config.yml": "output: default.jpg\n",
			},
			profile: "other",
			want:    &Config{Output: "default.jpg"},
		},
		{
			name: "env expansion",
			files: map[string]string{
				"config.yml": "show:\n  dir: ${INKCARD_TEST_PICS}\n",
			},
			env:  map[string]string{"INKCARD_TEST_PICS": "/mnt/pics"},
			want: &Config{Show: Show{Dir: "/mnt/pics"}},
		},
		{
			name: "invalid duration",
			files: map[string]string{
				"config.yml": "show:\n  interval: soon\n",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setConfigHome(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
					t.Fatalf("Failed to write config file: %v", err)
				}
			}
			got, err := Load(tt.profile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateHomePath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)
	stateHomePath = ""
	t.Cleanup(func() { stateHomePath = "" })
	if got, want := StateHomePath(), filepath.Join(tmpDir, "inkcard"); got != want {
		t.Errorf("StateHomePath() = %s, want %s", got, want)
	}
}

func intPtr(v int) *int {
	return &v
}

func boolPtr(b bool) *bool {
	return &b
}
