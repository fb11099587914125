package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asciify [video]",
		Short: "Convert a video into ASCII art: a self-playing batch script or an MP4",
		Long: "Samples frames from a video, maps every pixel's luminance to a glyph and writes\n" +
			"either a Windows batch script that plays the animation in a console (--mode script)\n" +
			"or an MP4 with the glyphs drawn into each frame (--mode video).\n\n" +
			"Output goes to <name>_ascii/ next to the video unless --out is given.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd, input)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	f := root.Flags()
	f.StringP("mode", "m", "script", "Output mode: script|video")
	f.String("out", "", "Directory to create the <name>_ascii folder in (default: next to the video)")
	f.String("config", "", "YAML preset file")
	f.IntP("width", "W", 0, "Grid width in characters (default 180 script, 120 video)")
	f.IntP("height", "H", 0, "Grid height in characters (default 60)")
	f.IntP("max-frames", "n", 0, "Maximum number of frames (default 5000 script, 300 video)")
	f.Float64("fps", 0, "Playback frame rate (default 30)")
	f.Bool("color", true, "Colour glyphs by brightness")
	f.Bool("random", false, "Jitter glyph choice for a grainy look")
	f.Uint64("seed", 0, "Jitter seed, 0 picks one from the clock")
	f.IntP("workers", "j", 0, "Parallel mapping workers (default: number of CPUs)")
	f.BoolP("yes", "y", false, "Never prompt")
	f.Bool("open", false, "Open the output folder when done (implied by answering the prompt)")
	f.BoolP("verbose", "v", false, "Debug logging")

	// video tuning
	f.String("raster", "", "Video frame size WxH (default 1920x1080)")
	f.String("cell", "", "Glyph cell pitch WxH in pixels (default 6x12)")
	f.Float64("font-size", 0, "Glyph font size in points (default 8)")
	f.String("font", "", "Monospace TrueType/OpenType font file")
	f.String("codec", "", "ffmpeg video codec (default libx264)")
	_ = f.MarkHidden("cell")
	_ = f.MarkHidden("codec")

	return root
}
