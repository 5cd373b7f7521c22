package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pbr-demo/ibl"

	"golang.org/x/exp/slices"
)

type impl string

const (
	implCl impl = "opencl"
	implSw impl = "software"
	implGl impl = "opengl"
)

func (i *impl) String() string {
	return string(*i)
}

func (i *impl) Set(s string) error {
	switch impl(s) {
	case implCl, implSw, implGl:
		*i = impl(s)
	default:
		return fmt.Errorf("%s is not a valid implementation", s)
	}
	return nil
}

type device string

const (
	deviceGpu device = "gpu"
	deviceCpu device = "cpu"
)

func (d *device) String() string {
	return string(*d)
}

func (d *device) Set(s string) error {
	switch device(strings.ToLower(s)) {
	case deviceGpu:
		*d = deviceGpu
	case deviceCpu:
		*d = deviceCpu
	default:
		return fmt.Errorf("%s is not a valid device", s)
	}
	return nil
}

func (d device) clDevice() ibl.DeviceType {
	if d == deviceCpu {
		return ibl.DeviceTypeCPU
	}
	return ibl.DeviceTypeGPU
}

type sizeUnit string

const (
	unitPixel   = "px"
	unitPercent = "%"
)

type size struct {
	unit    sizeUnit
	pixel   int32
	percent float64
}

func (sz *size) String() string {
	switch sz.unit {
	case unitPercent:
		return fmt.Sprintf("%s%%", strconv.FormatFloat(sz.percent, 'f', -1, 64))
	case unitPixel:
		return fmt.Sprintf("%dpx", sz.pixel)
	default:
		return ""
	}
}

func (sz *size) Set(s string) error {
	s = strings.TrimSpace(s)
	var err error
	var px int64
	switch {
	case strings.HasSuffix(s, unitPercent):
		sz.unit = unitPercent
		sz.percent, err = strconv.ParseFloat(strings.TrimSuffix(s, unitPercent), 64)
	case strings.HasSuffix(s, unitPixel):
		sz.unit = unitPixel
		px, err = strconv.ParseInt(strings.TrimSuffix(s, unitPixel), 10, 32)
		sz.pixel = int32(px)
	default:
		sz.unit = unitPixel
		px, err = strconv.ParseInt(s, 10, 32)
		sz.pixel = int32(px)
	}
	if err == nil && (sz.pixel < 0 || sz.percent < 0) {
		err = fmt.Errorf("size %q is negative", s)
	}
	return err
}

func (sz *size) Calc(width int) int {
	switch sz.unit {
	case unitPercent:
		return int(math.Round(sz.percent / 100 * float64(width)))
	case unitPixel:
		return int(sz.pixel)
	}
	return 0
}

type commonArgs struct {
	compress int
	out      string
	quiet    bool
	ext      string
	suffix   string
}

func (args *commonArgs) outputPath(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(args.out, name+args.suffix+args.ext)
}

func (args *commonArgs) validate() error {
	if args.compress < 0 || args.compress > 10 {
		return fmt.Errorf("compression level %d is not in 0..10", args.compress)
	}
	if args.out == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		args.out = wd
	}
	if _, err := os.Stat(args.out); err != nil {
		return fmt.Errorf("cannot stat output directory: %w", err)
	}
	return nil
}

// encodeOptions maps the 0..10 flag onto OptCompress, where 0 means uncompressed.
func (args *commonArgs) encodeOptions() []ibl.EncodeOption {
	if opt := ibl.OptCompress(args.compress - 1); opt != nil {
		return []ibl.EncodeOption{opt}
	}
	return nil
}

var errUsage = errors.New("invalid usage")

type command struct {
	Run   func(self *command) error
	Name  string
	Help  string
	Usage string
	Flags *flag.FlagSet
}

func commands() []*command {
	cmds := []*command{
		createDiffuseCommand(),
		createPreviewCommand(),
		createGradientCommand(),
	}
	slices.SortFunc(cmds, func(a, b *command) int {
		return strings.Compare(a.Name, b.Name)
	})
	return cmds
}

func findCommand(cmds []*command, name string) *command {
	for _, c := range cmds {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func printGeneralUsage(w io.Writer, cmds []*command) {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage: %s <command> [arguments]\n\n", exe)
	fmt.Fprintf(w, "The commands are:\n\n")
	longest := slices.MaxFunc(cmds, func(a, b *command) int {
		return len(a.Name) - len(b.Name)
	})
	for _, c := range cmds {
		fmt.Fprintf(w, "    %*s%s\n", -len(longest.Name)-4, c.Name, c.Help)
	}
	fmt.Fprintln(w, "")
}

func printCommandUsage(w io.Writer, cmd *command) {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage: %s %s [arguments]%s\n\n", exe, cmd.Name, cmd.Usage)
	fmt.Fprintf(w, "The arguments are:\n\n")
	cmd.Flags.SetOutput(w)
	cmd.Flags.PrintDefaults()
}

func setupLogging(quiet bool) {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	cmds := commands()
	if len(os.Args) < 2 {
		printGeneralUsage(os.Stderr, cmds)
		os.Exit(1)
	}

	cmd := findCommand(cmds, os.Args[1])
	if cmd == nil {
		printGeneralUsage(os.Stderr, cmds)
		os.Exit(1)
	}

	if err := cmd.Flags.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	err := cmd.Run(cmd)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printCommandUsage(os.Stderr, cmd)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", "command", cmd.Name, "err", err)
		os.Exit(1)
	}
}

func registerCommonFlags(flags *flag.FlagSet, args *commonArgs) {
	flags.IntVar(&args.compress, "compress", args.compress, "the compression level from 0 (none) to 10 (high)")
	flags.IntVar(&args.compress, "c", args.compress, "shorthand for compress")
	flags.StringVar(&args.out, "out", args.out, "the output directory")
	flags.StringVar(&args.out, "o", args.out, "shorthand for out")
	flags.BoolVar(&args.quiet, "quiet", args.quiet, "disables informational logging")
	flags.BoolVar(&args.quiet, "q", args.quiet, "shorthand for quiet")
	flags.StringVar(&args.ext, "ext", args.ext, "the result file extension")
	flags.StringVar(&args.suffix, "suffix", args.suffix, "the result file suffix")
}

func gatherInputFiles(globs []string) []string {
	matched := []string{}
	for _, g := range globs {
		m, err := filepath.Glob(g)
		if err != nil {
			slog.Warn("bad input pattern", "pattern", g, "err", err)
			continue
		}
		matched = append(matched, m...)
	}
	return matched
}

// processFiles runs fn for every input and reports how many succeeded.
// A failing file is logged and does not stop the batch.
func processFiles(inputs []string, fn func(p string) error) (success int) {
	for i, p := range inputs {
		slog.Info("processing file", "index", i+1, "count", len(inputs), "path", filepath.ToSlash(filepath.Clean(p)))
		if err := fn(p); err != nil {
			slog.Error("file failed", "path", p, "err", err)
			continue
		}
		success++
	}
	return success
}

func readIblEnv(p string) (*ibl.IblEnv, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ibl.DecodeIblEnv(f)
}

// writeFile creates p and removes it again if write fails.
func writeFile(p string, write func(w io.Writer) error) (err error) {
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(p)
		}
	}()
	return write(f)
}
