package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/forPelevin/asciify/internal/config"
	"github.com/forPelevin/asciify/internal/pipeline"
	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/ports/adapters/host"
	"github.com/forPelevin/asciify/internal/types"
)

func run(cmd *cobra.Command, input string) error {
	cfg, err := buildConfig(cmd, input)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		ReportTimestamp: true,
		Prefix:          "asciify",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	cfg.Logger = logger

	yes, _ := cmd.Flags().GetBool("yes")
	open, _ := cmd.Flags().GetBool("open")
	cfg.UI = interaction(yes, open, cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := pipeline.Run(ctx, cfg); err != nil {
		if errors.Is(err, types.ErrNoSelection) {
			logger.Info("no file selected")
			return nil
		}
		return err
	}
	return nil
}

// interaction prompts only when stdin is a terminal and --yes is not set.
func interaction(yes, open bool, cmd *cobra.Command) ports.Interaction {
	if yes || !term.IsTerminal(int(os.Stdin.Fd())) {
		return host.Headless{Open: open}
	}
	return host.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
}

// buildConfig layers mode defaults, env and the preset file, then flags the
// user actually set.
func buildConfig(cmd *cobra.Command, input string) (pipeline.Config, error) {
	fl := cmd.Flags()
	modeStr, _ := fl.GetString("mode")
	mode, err := types.ParseOutputKind(modeStr)
	if err != nil {
		return pipeline.Config{}, err
	}
	presetPath, _ := fl.GetString("config")
	d, err := config.Load(presetPath, mode)
	if err != nil {
		return pipeline.Config{}, err
	}

	if fl.Changed("width") {
		d.Width, _ = fl.GetInt("width")
	}
	if fl.Changed("height") {
		d.Height, _ = fl.GetInt("height")
	}
	if fl.Changed("max-frames") {
		d.MaxFrames, _ = fl.GetInt("max-frames")
	}
	if fl.Changed("fps") {
		d.FPS, _ = fl.GetFloat64("fps")
	}
	if fl.Changed("color") {
		d.Color, _ = fl.GetBool("color")
	}
	if fl.Changed("random") {
		d.Random, _ = fl.GetBool("random")
	}
	if fl.Changed("seed") {
		d.Seed, _ = fl.GetUint64("seed")
	}
	if fl.Changed("workers") {
		d.Workers, _ = fl.GetInt("workers")
	}
	if fl.Changed("out") {
		d.OutDir, _ = fl.GetString("out")
	}
	if fl.Changed("raster") {
		s, _ := fl.GetString("raster")
		if d.RasterWidth, d.RasterHeight, err = parseSize(s); err != nil {
			return pipeline.Config{}, fmt.Errorf("--raster: %w", err)
		}
	}
	if fl.Changed("cell") {
		s, _ := fl.GetString("cell")
		if d.CellWidth, d.CellHeight, err = parseSize(s); err != nil {
			return pipeline.Config{}, fmt.Errorf("--cell: %w", err)
		}
	}
	if fl.Changed("font-size") {
		d.FontSize, _ = fl.GetFloat64("font-size")
	}
	if fl.Changed("font") {
		d.FontPath, _ = fl.GetString("font")
	}
	if fl.Changed("codec") {
		d.Codec, _ = fl.GetString("codec")
	}
	if d.Workers == 0 {
		d.Workers = runtime.NumCPU()
	}

	cfg := pipeline.Config{
		Source:       input,
		Output:       mode,
		OutDir:       d.OutDir,
		Width:        d.Width,
		Height:       d.Height,
		MaxFrames:    d.MaxFrames,
		FPS:          d.FPS,
		RasterWidth:  d.RasterWidth,
		RasterHeight: d.RasterHeight,
		CellWidth:    d.CellWidth,
		CellHeight:   d.CellHeight,
		FontSize:     d.FontSize,
		FontPath:     d.FontPath,
		Codec:        d.Codec,
		Random:       d.Random,
		Color:        d.Color,
		Seed:         d.Seed,
		Workers:      d.Workers,
		FFmpegPath:   d.FFmpeg,
		FFprobePath:  d.FFprobe,
	}
	return cfg, cfg.Validate()
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("width: %w", err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("height: %w", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size must be positive, got %dx%d", w, h)
	}
	return w, h, nil
}
