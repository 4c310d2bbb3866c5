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
	"log/slog"
	"os"

	"github.com/k1LoW/inkcard"
	"github.com/k1LoW/inkcard/config"
	"github.com/k1LoW/inkcard/typeface"
	"github.com/pkg/browser"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	padding    int
	output     string
	fontPath   string
	pixelWrap  bool
	openOutput bool
)

type renderSettings struct {
	Width     int
	Height    int
	Padding   int
	Output    string
	Font      string
	PixelWrap bool
}

var renderCmd = &cobra.Command{
	Use:   "render [IMAGE] [TEXT]",
	Short: "render text on top of an image as a grayscale card",
	Long:  `render text on top of an image as a grayscale card. IMAGE is a local path or an http(s) URL.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(profile)
		if err != nil {
			return err
		}
		s := resolveRender(cmd.Flags().Changed, cfg)
		logger := slog.New(slogmulti.Fanout(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
			slog.NewJSONHandler(tb, &slog.HandlerOptions{Level: slog.LevelDebug}),
		))
		c, err := inkcard.New(
			inkcard.WithCanvas(s.Width, s.Height),
			inkcard.WithPadding(s.Padding),
			inkcard.WithFontPath(s.Font),
			inkcard.WithPixelWrap(s.PixelWrap),
			inkcard.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		img, _, err := c.Render(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if err := inkcard.Save(s.Output, img); err != nil {
			return err
		}
		cmd.Printf("Image saved as %s\n", s.Output)
		if openOutput {
			return browser.OpenFile(s.Output)
		}
		return nil
	},
}

// resolveRender merges flags over the config file over built-in defaults.
func resolveRender(changed func(name string) bool, cfg *config.Config) renderSettings {
	s := renderSettings{
		Width:     inkcard.CanvasWidth,
		Height:    inkcard.CanvasHeight,
		Padding:   inkcard.DefaultPadding,
		Output:    inkcard.DefaultOutput,
		Font:      typeface.DefaultPath,
		PixelWrap: false,
	}
	if cfg.Canvas != nil {
		s.Width = cfg.Canvas.Width
		s.Height = cfg.Canvas.Height
	}
	if cfg.Padding != nil {
		s.Padding = *cfg.Padding
	}
	if cfg.Output != "" {
		s.Output = cfg.Output
	}
	if cfg.Font != "" {
		s.Font = cfg.Font
	}
	if cfg.PixelWrap != nil {
		s.PixelWrap = *cfg.PixelWrap
	}
	if changed("padding") {
		s.Padding = padding
	}
	if changed("output") {
		s.Output = output
	}
	if changed("font") {
		s.Font = fontPath
	}
	if changed("pixel-wrap") {
		s.PixelWrap = pixelWrap
	}
	return s
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().IntVarP(&padding, "padding", "p", inkcard.DefaultPadding, "padding between the canvas edge and the text")
	renderCmd.Flags().StringVarP(&output, "output", "o", inkcard.DefaultOutput, "output file (.png, .jpg or .jpeg)")
	renderCmd.Flags().StringVarP(&fontPath, "font", "f", typeface.DefaultPath, "TrueType font file")
	renderCmd.Flags().BoolVarP(&pixelWrap, "pixel-wrap", "", false, "wrap lines by measured width")
	renderCmd.Flags().BoolVarP(&openOutput, "open", "", false, "open the rendered card")
}
