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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/k1LoW/inkcard/config"
	"github.com/k1LoW/inkcard/epd"
	"github.com/k1LoW/inkcard/logger/dot"
	"github.com/k1LoW/inkcard/slideshow"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

const (
	driverFrames  = "frames"
	driverCommand = "command"
)

var (
	interval  time.Duration
	driver    string
	command   string
	frameDir  string
	panelName string
	filter    string
	watch     bool
	noDedupe  bool
	dither    bool
	logFile   string
)

type showSettings struct {
	Dir      string
	Interval time.Duration
	Driver   string
	Command  string
	FrameDir string
	Panel    string
	Filter   string
	Watch    bool
	Dedupe   bool
	Dither   bool
}

var showCmd = &cobra.Command{
	Use:   "show [DIR]",
	Short: "play the images of a directory on an e-paper panel",
	Long:  `play the images of a directory on an e-paper panel, one every interval, until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(profile)
		if err != nil {
			return err
		}
		s := resolveShow(cmd.Flags().Changed, cfg, args)
		d, err := newDisplay(s)
		if err != nil {
			return err
		}

		h, err := dot.New(slog.NewTextHandler(os.Stdout, nil))
		if err != nil {
			return err
		}
		handlers := []slog.Handler{h, slog.NewJSONHandler(tb, &slog.HandlerOptions{Level: slog.LevelDebug})}
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		logger := slog.New(slogmulti.Fanout(handlers...)).With(slog.String("session", uuid.New().String()))

		p, err := slideshow.New(s.Dir, d,
			slideshow.WithInterval(s.Interval),
			slideshow.WithFilter(s.Filter),
			slideshow.WithWatch(s.Watch),
			slideshow.WithDedupe(s.Dedupe),
			slideshow.WithDither(s.Dither),
			slideshow.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := p.Run(ctx); err != nil {
			if errors.Is(err, slideshow.ErrNoImages) {
				cmd.Printf("No images found in %s\n", s.Dir)
				return nil
			}
			return err
		}
		return nil
	},
}

func resolveShow(changed func(name string) bool, cfg *config.Config, args []string) showSettings {
	s := showSettings{
		Dir:      slideshow.DefaultDir,
		Interval: slideshow.DefaultInterval,
		Driver:   driverFrames,
		FrameDir: filepath.Join(config.StateHomePath(), "frames"),
		Panel:    epd.Waveshare7in5V2.Name,
		Dedupe:   true,
	}
	c := cfg.Show
	if c.Dir != "" {
		s.Dir = c.Dir
	}
	if c.Interval > 0 {
		s.Interval = time.Duration(c.Interval)
	}
	if c.Driver != "" {
		s.Driver = c.Driver
	}
	if c.Command != "" {
		s.Command = c.Command
	}
	if c.FrameDir != "" {
		s.FrameDir = c.FrameDir
	}
	if c.Panel != "" {
		s.Panel = c.Panel
	}
	if c.Filter != "" {
		s.Filter = c.Filter
	}
	if c.Watch != nil {
		s.Watch = *c.Watch
	}
	if c.Dedupe != nil {
		s.Dedupe = *c.Dedupe
	}
	if c.Dither != nil {
		s.Dither = *c.Dither
	}

	if len(args) > 0 {
		s.Dir = args[0]
	}
	if changed("interval") {
		s.Interval = interval
	}
	if changed("driver") {
		s.Driver = driver
	}
	if changed("command") {
		s.Command = command
	}
	if changed("frame-dir") {
		s.FrameDir = frameDir
	}
	if changed("panel") {
		s.Panel = panelName
	}
	if changed("filter") {
		s.Filter = filter
	}
	if changed("watch") {
		s.Watch = watch
	}
	if changed("no-dedupe") {
		s.Dedupe = !noDedupe
	}
	if changed("dither") {
		s.Dither = dither
	}
	return s
}

func newDisplay(s showSettings) (epd.Display, error) {
	panel, err := epd.LookupPanel(s.Panel)
	if err != nil {
		return nil, err
	}
	switch s.Driver {
	case driverFrames:
		return epd.NewFrameDir(s.FrameDir, panel), nil
	case driverCommand:
		if s.Command == "" {
			return nil, errors.New("--command is required for the command driver")
		}
		return epd.NewCommand(s.Command, panel), nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", s.Driver)
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().DurationVarP(&interval, "interval", "i", slideshow.DefaultInterval, "time each image stays on the panel")
	showCmd.Flags().StringVarP(&driver, "driver", "d", driverFrames, "display driver (frames|command)")
	showCmd.Flags().StringVarP(&command, "command", "c", "", "command line the command driver runs per operation")
	showCmd.Flags().StringVarP(&frameDir, "frame-dir", "", "", "directory the frames driver writes to")
	showCmd.Flags().StringVarP(&panelName, "panel", "", epd.Waveshare7in5V2.Name, "panel model")
	showCmd.Flags().StringVarP(&filter, "filter", "", "", "CEL expression selecting images by name, ext, size and modTime")
	showCmd.Flags().BoolVarP(&watch, "watch", "w", false, "rescan the directory when it changes")
	showCmd.Flags().BoolVarP(&noDedupe, "no-dedupe", "", false, "display visually identical images again")
	showCmd.Flags().BoolVarP(&dither, "dither", "", false, "dither images instead of thresholding")
	showCmd.Flags().StringVarP(&logFile, "log-file", "", "", "append JSON logs to this file")
}
