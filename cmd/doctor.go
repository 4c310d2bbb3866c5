package cmd

import (
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/k1LoW/inkcard/config"
	"github.com/k1LoW/inkcard/slideshow"
	"github.com/k1LoW/inkcard/typeface"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check inkcard environment and configuration",
	Long:  `Check inkcard environment and configuration to ensure everything is set up correctly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Color setup
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		bold := color.New(color.Bold)

		allOK := true

		// 1. Check configuration file (optional)
		cmd.Print("🔧 Checking configuration file ... ")

		cfg, err := config.Load(profile)
		if err != nil {
			red.Println("✗ CONFIG ERROR")
			cmd.Printf("   Error loading config: %v\n", err)
			return nil
		}
		if p, ok := config.Path(profile); ok {
			green.Println("✓ OK")
			cmd.Printf("   Config file: %s\n", p)
		} else {
			yellow.Println("- NOT FOUND")
			cmd.Println("   Using built-in defaults")
		}

		// 2. Check font
		cmd.Print("🔤 Checking font ... ")

		s := resolveRender(func(string) bool { return false }, cfg)
		if t, err := typeface.Open(s.Font); err != nil {
			yellow.Println("⚠️ FALLBACK")
			cmd.Printf("   %v\n", err)
			cmd.Printf("   Text will be drawn with %s\n", typeface.Default().Name())
		} else {
			green.Println("✓ OK")
			cmd.Printf("   Font: %s (%s)\n", t.Name(), t.Path())
		}

		// 3. Check image directory
		show := resolveShow(func(string) bool { return false }, cfg, args)
		cmd.Print("🖼  Checking image directory ... ")

		images, err := slideshow.Scan(show.Dir, show.Filter)
		switch {
		case err != nil:
			red.Println("✗ NOT READABLE")
			cmd.Printf("   %v\n", err)
			allOK = false
		case len(images) == 0:
			yellow.Println("⚠️ EMPTY")
			cmd.Printf("   No images in %s\n", show.Dir)
		default:
			green.Println("✓ OK")
			cmd.Printf("   %d images in %s\n", len(images), show.Dir)
		}

		// 4. Check display driver
		cmd.Print("🖥  Checking display driver ... ")

		if _, err := newDisplay(show); err != nil {
			red.Println("✗ INVALID")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else if show.Driver == driverCommand {
			if _, err := lookCommand(show.Command); err != nil {
				red.Println("✗ COMMAND NOT FOUND")
				cmd.Printf("   %v\n", err)
				allOK = false
			} else {
				green.Println("✓ OK")
				cmd.Printf("   Command: %s\n", show.Command)
			}
		} else {
			green.Println("✓ OK")
			cmd.Printf("   Frames are written to %s\n", show.FrameDir)
		}

		// Final message
		cmd.Println()
		if allOK {
			bold.Printf("🎉 ")
			green.Print("All checks passed! You are ready to use inkcard")
			bold.Println(".")
		} else {
			red.Println("⚠️  Setup is incomplete.")
			cmd.Println("\nPlease fix the issues above to use inkcard properly.")
		}
		return nil
	},
}

// lookCommand finds the program a command line starts with.
func lookCommand(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", os.ErrNotExist
	}
	return exec.LookPath(fields[0])
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Args = cobra.MaximumNArgs(1)
}
