package ibl

import (
	"fmt"
	"io"

	"pbr-demo/libio"

	"github.com/pierrec/lz4/v4"
)

type EncodeContext struct {
	Compression IblEnvCompression
	Writer      io.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress enables lz4 compression. Level 0 is lz4's fast mode, 1 to 9 are the HC levels.
// A negative level disables compression and yields a nil option, which is ignored.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.Compression != IblEnvCompressionNone {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		if err := lzw.Apply(lz4.CompressionLevelOption(levels[level])); err != nil {
			return err
		}
		if level == 0 {
			ctx.Compression = IblEnvCompressionLZ4Fast
		} else {
			ctx.Compression = IblEnvCompressionLZ4
		}
		ctx.Writer = lzw
		return nil
	}
}

func EncodeIblEnv(w io.Writer, env *IblEnv, options ...EncodeOption) (err error) {
	bw := libio.NewBinaryWriter(w)
	defer func() {
		if bw.Err != nil {
			if err == nil {
				err = bw.Err
			} else {
				err = fmt.Errorf("%v: %w", err, bw.Err)
			}
		}
	}()

	ctx := EncodeContext{
		Writer: bw.Dst,
	}

	for _, opt := range options {
		if opt != nil {
			if err := opt(&ctx); err != nil {
				return err
			}
		}
	}

	header := IblEnvHeader{
		Check:       MagicNumberIBLENV,
		Version:     IblEnvVersion1_001_000,
		Compression: ctx.Compression,
		Size:        uint32(env.Size),
	}
	if !bw.WriteRef(&header) {
		return fmt.Errorf("could not write ibl env header")
	}

	if err := EncodeRgbe(ctx.Writer, env.Concat(), false); err != nil {
		return fmt.Errorf("could not write ibl env encoded pixels: %w", err)
	}

	if closer, ok := ctx.Writer.(io.WriteCloser); ok && ctx.Compression != IblEnvCompressionNone {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	return nil
}

// EncodeRgbe streams data as RGBE texels. With hasAlpha the input has four floats per texel.
func EncodeRgbe(w io.Writer, data []float32, hasAlpha bool) error {
	// 16 kib
	components := 4
	rsize := 16384
	if !hasAlpha {
		components = 3
		// 12 kib
		rsize = 12288
	}
	buf := make([]byte, 16384)

	if len(data)%components != 0 {
		return fmt.Errorf("source not a multiple of %d floats", components)
	}

	for i := 0; i < len(data); i += rsize {
		j := i + rsize
		if j > len(data) {
			j = len(data)
		}
		n := encodeRgbeChunk(components, data[i:j], buf)

		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

func EncodeRgbeBytes(data []float32, hasAlpha bool) ([]byte, error) {
	components := 4
	if !hasAlpha {
		components = 3
	}

	if len(data)%components != 0 {
		return nil, fmt.Errorf("source not a multiple of %d floats", components)
	}
	if len(data) == 0 {
		return []byte{}, nil
	}

	result := make([]byte, len(data)*4/components)
	n := encodeRgbeChunk(components, data, result)

	return result[:n], nil
}
