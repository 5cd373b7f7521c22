package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"pbr-demo/ibl"

	"github.com/go-gl/mathgl/mgl32"
)

type gradientArgs struct {
	commonArgs
	size    int
	sky     ibl.GradientSky
	zenith  colorFlag
	horizon colorFlag
	ground  colorFlag
}

// colorFlag parses "r,g,b" linear colours.
type colorFlag struct {
	c *mgl32.Vec3
}

func (f colorFlag) String() string {
	if f.c == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", f.c[0], f.c[1], f.c[2])
}

func (f colorFlag) Set(s string) error {
	var c mgl32.Vec3
	if _, err := fmt.Sscanf(s, "%f,%f,%f", &c[0], &c[1], &c[2]); err != nil {
		return fmt.Errorf("color %q is not r,g,b: %w", s, err)
	}
	if c[0] < 0 || c[1] < 0 || c[2] < 0 {
		return fmt.Errorf("color %q is negative", s)
	}
	*f.c = c
	return nil
}

func defaultGradientArgs() *gradientArgs {
	args := &gradientArgs{
		commonArgs: commonArgs{
			ext:      ".iblenv",
			compress: 2,
		},
		size: 128,
		sky:  ibl.DefaultGradientSky(),
	}
	args.zenith = colorFlag{&args.sky.Zenith}
	args.horizon = colorFlag{&args.sky.Horizon}
	args.ground = colorFlag{&args.sky.Ground}
	return args
}

func createGradientCommand() *command {
	args := defaultGradientArgs()

	flags := flag.NewFlagSet("gradient", flag.ContinueOnError)
	registerCommonFlags(flags, &args.commonArgs)
	flags.IntVar(&args.size, "size", args.size, "the cubemap face resolution in px")
	flags.Var(args.zenith, "zenith", "the linear sky colour straight up")
	flags.Var(args.horizon, "horizon", "the linear sky colour at the horizon")
	flags.Var(args.ground, "ground", "the linear colour below the horizon")
	flags.Func("intensity", "scales all colours (default 1)", func(s string) error {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil || v < 0 {
			return fmt.Errorf("intensity %q is not a non-negative number", s)
		}
		args.sky.Intensity = float32(v)
		return nil
	})

	return &command{
		Name:  "gradient",
		Help:  "bake a procedural gradient sky to an ibl environment",
		Usage: " name",
		Run: func(self *command) error {
			if self.Flags.NArg() != 1 || args.size < 1 {
				return errUsage
			}
			if err := args.validate(); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			setupLogging(args.quiet)
			return bakeGradient(args, self.Flags.Arg(0))
		},
		Flags: flags,
	}
}

func bakeGradient(args *gradientArgs, name string) error {
	env := args.sky.Bake(args.size)
	out := args.outputPath(filepath.Base(name))
	slog.Info("writing gradient sky", "path", out, "size", args.size)
	return writeFile(out, func(w io.Writer) error {
		return ibl.EncodeIblEnv(w, env, args.encodeOptions()...)
	})
}
