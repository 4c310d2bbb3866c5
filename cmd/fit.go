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

	"github.com/k1LoW/inkcard"
	"github.com/k1LoW/inkcard/typeface"
	"github.com/spf13/cobra"
)

var (
	fitWidth     int
	fitHeight    int
	fitPadding   int
	fitFont      string
	fitPixelWrap bool
	fitJSON      bool
)

var fitCmd = &cobra.Command{
	Use:   "fit [TEXT]",
	Short: "show the font size and lines chosen for TEXT",
	Long:  `show the font size and lines chosen for TEXT without rendering.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := inkcard.New(
			inkcard.WithCanvas(fitWidth, fitHeight),
			inkcard.WithPadding(fitPadding),
			inkcard.WithFontPath(fitFont),
			inkcard.WithPixelWrap(fitPixelWrap),
		)
		if err != nil {
			return err
		}
		res, err := c.Fit(args[0])
		if err != nil {
			return err
		}
		if fitJSON {
			b, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(b))
			return nil
		}
		if res.Fallback {
			cmd.Printf("size: %d (fallback)\n", res.Size)
		} else {
			cmd.Printf("size: %d\n", res.Size)
		}
		for _, l := range res.Lines {
			cmd.Println(l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().IntVarP(&fitWidth, "width", "", inkcard.CanvasWidth, "canvas width")
	fitCmd.Flags().IntVarP(&fitHeight, "height", "", inkcard.CanvasHeight, "canvas height")
	fitCmd.Flags().IntVarP(&fitPadding, "padding", "p", inkcard.DefaultPadding, "padding between the canvas edge and the text")
	fitCmd.Flags().StringVarP(&fitFont, "font", "f", typeface.DefaultPath, "TrueType font file")
	fitCmd.Flags().BoolVarP(&fitPixelWrap, "pixel-wrap", "", false, "wrap lines by measured width")
	fitCmd.Flags().BoolVarP(&fitJSON, "json", "", false, "print the result as JSON")
}
