package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/archive"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/decoder"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/imagecodec"
	"github.com/fiapx/fiapx-frame-sampler/internal/usecase"
	"github.com/fiapx/fiapx-frame-sampler/pkg/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

type openerFactory func(name string, opts decoder.Options, logger *zap.Logger) (port.SourceOpener, error)

type app struct {
	stdout    io.Writer
	stderr    io.Writer
	newOpener openerFactory
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, newOpener: decoder.NewOpener}
	code := a.exitCode(a.command().Run(ctx, os.Args))
	stop()
	os.Exit(code)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "extract frames from a video at a fixed sampling rate",
		ArgsUsage: "<video>",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "base directory for the <name>_frames folder (default: next to the video)",
				Sources: cli.EnvVars("FRAMES_OUTPUT"),
			},
			&cli.Float64Flag{
				Name:    "rate",
				Aliases: []string{"r"},
				Usage:   "frames per second to keep",
				Value:   1,
				Sources: cli.EnvVars("FRAMES_RATE"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "image format: jpg or png",
				Value:   string(entity.FrameFormatJPEG),
				Sources: cli.EnvVars("FRAMES_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "decoder",
				Usage:   "decoding backend: ffmpeg or mpeg",
				Value:   decoder.FFmpeg,
				Sources: cli.EnvVars("FRAMES_DECODER"),
			},
			&cli.IntFlag{
				Name:    "quality",
				Usage:   "JPEG quality (1-100)",
				Value:   imagecodec.DefaultJPEGQuality,
				Sources: cli.EnvVars("FRAMES_QUALITY"),
			},
			&cli.IntFlag{
				Name:    "max-width",
				Usage:   "downscale frames wider than this, 0 keeps the original size",
				Sources: cli.EnvVars("FRAMES_MAX_WIDTH"),
			},
			&cli.BoolFlag{
				Name:    "zip",
				Usage:   "also bundle the frames into <output dir>.zip",
				Sources: cli.EnvVars("FRAMES_ZIP"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				Sources: cli.EnvVars("FRAMES_LOG_LEVEL"),
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action:         a.run,
	}
}

func (a *app) run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("expected exactly one video path", exitUsage)
	}

	format, err := entity.ParseFrameFormat(cmd.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	log, err := logger.New(cmd.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	defer log.Sync()

	opener, err := a.newOpener(cmd.String("decoder"), decoder.Options{}, log)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	sampler := usecase.NewFrameSampler(opener, imagecodec.NewEncoder(cmd.Int("quality"), cmd.Int("max-width")), log)
	req := entity.ProcessRequest{
		SourcePath: cmd.Args().First(),
		OutputDir:  cmd.String("output"),
		Rate:       cmd.Float64("rate"),
		Format:     format,
	}

	res := sampler.Run(ctx, req, a.progressPrinter())
	if !res.Success {
		if res.FramesWritten > 0 {
			fmt.Fprintf(a.stderr, "%d frames were written to %s before the failure\n", res.FramesWritten, res.OutputDir)
		}
		return cli.Exit(fmt.Sprintf("%s: %s", res.Kind(), res.Message), exitFailure)
	}
	fmt.Fprintln(a.stdout, res.Message)

	if cmd.Bool("zip") {
		zipPath := res.OutputDir + ".zip"
		if err := archive.NewZipCreator().CreateZip(ctx, res.FramePaths, zipPath); err != nil {
			return cli.Exit(fmt.Sprintf("create zip: %v", err), exitFailure)
		}
		fmt.Fprintf(a.stdout, "archived %d frames to %s\n", len(res.FramePaths), zipPath)
	}
	return nil
}

// progressPrinter redraws a single percentage line on stderr, only when the
// whole percentage changes.
func (a *app) progressPrinter() port.ProgressFunc {
	last := -1
	return func(p float64) {
		pct := int(math.Floor(p * 100))
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(a.stderr, "\rprogress: %3d%%", pct)
		if pct >= 100 {
			fmt.Fprintln(a.stderr)
		}
	}
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(a.stderr, err)

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	// flag parsing and other errors raised by cli itself
	return exitUsage
}
