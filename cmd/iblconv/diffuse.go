package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"pbr-demo/ibl"
)

type diffuseArgs struct {
	commonArgs
	size    size
	impl    impl
	device  device
	quality int
}

func defaultDiffuseArgs() diffuseArgs {
	return diffuseArgs{
		commonArgs: commonArgs{
			ext:      ".iblenv",
			suffix:   "_diffuse",
			compress: 2,
		},
		impl:   implCl,
		device: deviceGpu,
		size: size{
			unit:  unitPixel,
			pixel: ibl.DefaultIrradianceSize,
		},
		quality: ibl.DefaultKernelQuality,
	}
}

func createDiffuseCommand() *command {
	args := defaultDiffuseArgs()

	flags := flag.NewFlagSet("diffuse", flag.ContinueOnError)
	registerCommonFlags(flags, &args.commonArgs)
	flags.Var(&args.size, "size", "the irradiance face resolution, either % of the input size or absolute px")
	flags.Var(&args.size, "s", "shorthand for size")
	flags.Var(&args.impl, "impl", "the convolution implementation; opencl, opengl or software")
	flags.Var(&args.device, "device", "the preferred opencl device; gpu or cpu")
	flags.IntVar(&args.quality, "quality", args.quality, "the convolution sample density")

	return &command{
		Name:  "diffuse",
		Help:  "bake diffuse irradiance maps from ibl environments",
		Usage: " file-glob...",
		Run: func(self *command) error {
			if self.Flags.NArg() < 1 || args.quality < 1 {
				return errUsage
			}
			if err := args.validate(); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			setupLogging(args.quiet)

			inputs := gatherInputFiles(self.Flags.Args())
			success, err := runDiffuse(args, inputs)
			if err != nil {
				return err
			}
			if success != len(inputs) {
				return fmt.Errorf("%d of %d files failed", len(inputs)-success, len(inputs))
			}
			return nil
		},
		Flags: flags,
	}
}

// newConvolver picks the implementation. OpenCL falls back to software when no device is available.
func newConvolver(args diffuseArgs) (ibl.Convolver, error) {
	switch args.impl {
	case implGl:
		slog.Info("using opengl implementation")
		return newGlConvolver(args.quality)
	case implCl:
		conv, err := ibl.NewClDiffuseConvolver(args.device.clDevice(), args.quality)
		if err == nil {
			slog.Info("using opencl implementation")
			return conv, nil
		}
		slog.Warn("opencl unavailable, falling back to software implementation", "err", err)
	}
	slog.Info("using software implementation")
	return ibl.NewSwDiffuseConvolver(args.quality), nil
}

func runDiffuse(args diffuseArgs, inputs []string) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	conv, err := newConvolver(args)
	if err != nil {
		return 0, err
	}
	defer conv.Release()

	start := time.Now()
	success := processFiles(inputs, func(p string) error {
		return convolveFile(args, p, conv)
	})
	slog.Info("convolved files", "success", success, "count", len(inputs), "took", time.Since(start))
	return success, nil
}

func convolveFile(args diffuseArgs, p string, conv ibl.Convolver) error {
	src, err := readIblEnv(p)
	if err != nil {
		return err
	}
	if src.Size == 0 {
		return fmt.Errorf("image has zero size")
	}

	size := args.size.Calc(src.Size)
	if size <= 0 {
		return fmt.Errorf("face size %s of %d is empty", args.size.String(), src.Size)
	}
	slog.Info("convolving", "size", size, "quality", args.quality)

	irradiance, err := conv.Convolve(src, size)
	if err != nil {
		return err
	}

	out := args.outputPath(p)
	slog.Info("writing", "path", out)
	return writeFile(out, func(w io.Writer) error {
		return ibl.EncodeIblEnv(w, irradiance, args.encodeOptions()...)
	})
}
