package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"time"

	"pbr-demo/libio"
)

type previewArgs struct {
	commonArgs
	gamma    float64
	scale    float64
	reinhard bool
}

func defaultPreviewArgs() previewArgs {
	return previewArgs{
		commonArgs: commonArgs{
			ext: ".png",
		},
		gamma: 2.2,
		scale: 1.0,
	}
}

func createPreviewCommand() *command {
	args := defaultPreviewArgs()

	flags := flag.NewFlagSet("preview", flag.ContinueOnError)
	registerCommonFlags(flags, &args.commonArgs)
	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")

	return &command{
		Name:  "preview",
		Help:  "render ibl environments to png",
		Usage: " file-glob...",
		Run: func(self *command) error {
			if self.Flags.NArg() < 1 || args.gamma <= 0 {
				return errUsage
			}
			if err := args.validate(); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			setupLogging(args.quiet)

			inputs := gatherInputFiles(self.Flags.Args())
			start := time.Now()
			success := processFiles(inputs, func(p string) error {
				return previewFile(args, p)
			})
			slog.Info("converted files", "success", success, "count", len(inputs), "took", time.Since(start))
			if success != len(inputs) {
				return fmt.Errorf("%d of %d files failed", len(inputs)-success, len(inputs))
			}
			return nil
		},
		Flags: flags,
	}
}

// previewFile writes the six faces stacked vertically in face order.
func previewFile(args previewArgs, p string) error {
	env, err := readIblEnv(p)
	if err != nil {
		return err
	}

	fimg := libio.NewFloatImage(env.Concat(), 3, env.Size, env.Size*6)
	rgba := fimg.ToIntImage(float32(args.gamma), float32(args.scale), args.reinhard).ToRGBA()

	out := args.outputPath(p)
	slog.Info("writing", "path", out, "width", env.Size, "height", env.Size*6)
	return writeFile(out, func(w io.Writer) error {
		return png.Encode(w, rgba)
	})
}
