package ibl

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"pbr-demo/libio"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrCorruptHeader          = errors.New("environment header is corrupt")
	ErrUnsupportedVersion     = errors.New("environment version unsupported")
	ErrUnsupportedCompression = errors.New("environment compression unsupported")
)

// maxEnvSize guards allocations against a corrupt size field.
const maxEnvSize = 16384

func DecodeIblEnv(r io.Reader) (env *IblEnv, err error) {
	br := libio.NewBinaryReader(r)
	defer func() {
		if br.Err != nil {
			if err == nil {
				err = br.Err
			} else {
				err = fmt.Errorf("%v: %w", err, br.Err)
			}
		}
	}()

	header := IblEnvHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected environment header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberIBLENV {
		return nil, fmt.Errorf("%w; byte 0x%08x", ErrCorruptHeader, br.LastIndex)
	}

	if header.Version != IblEnvVersion1_001_000 {
		return nil, fmt.Errorf("%w: %d; byte 0x%08x", ErrUnsupportedVersion, header.Version, br.LastIndex)
	}

	if header.Size == 0 || header.Size > maxEnvSize {
		return nil, fmt.Errorf("%w: size %d; byte 0x%08x", ErrCorruptHeader, header.Size, br.LastIndex)
	}

	var pixr io.Reader = br
	switch header.Compression {
	case IblEnvCompressionNone:
	case IblEnvCompressionLZ4, IblEnvCompressionLZ4Fast:
		pixr = lz4.NewReader(br)
	default:
		return nil, fmt.Errorf("%w: id %d; byte 0x%08x", ErrUnsupportedCompression, header.Compression, br.LastIndex)
	}

	pixels := 6 * int(header.Size) * int(header.Size)
	data := make([]byte, pixels*4)
	if _, err := io.ReadFull(pixr, data); err != nil {
		return nil, fmt.Errorf("expected %d encoded pixels: %w", pixels, err)
	}

	colors, err := DecodeRgbeBytes(data, false)
	if err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return NewIblEnv(colors, int(header.Size)), nil
}

// DecodeRgbe reads RGBE texels until EOF. With hasAlpha four floats are produced per texel.
func DecodeRgbe(r io.Reader, hasAlpha bool) ([]float32, error) {
	// 16 kib
	rbuf := make([]byte, 16384)

	components := 4
	if !hasAlpha {
		components = 3
	}
	chunk := make([]float32, len(rbuf)/4*components)

	var result []float32
	for {
		rn, err := io.ReadFull(r, rbuf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if rn%4 != 0 {
			return nil, fmt.Errorf("source not a multiple of 4 bytes")
		}

		n := decodeRgbeChunk(components, rbuf[:rn], chunk)
		result = append(result, chunk[:n]...)

		if err != nil {
			// UnexpectedEOF is expected on the last chunk
			break
		}
	}

	return result, nil
}

func DecodeRgbeBytes(data []byte, hasAlpha bool) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("source not a multiple of 4 bytes")
	}

	components := 4
	if !hasAlpha {
		components = 3
	}
	result := make([]float32, components*len(data)/4)
	n := decodeRgbeChunk(components, data, result)

	return result[:n], nil
}

// DecodeIblEnvBytes is DecodeIblEnv for data already in memory.
func DecodeIblEnvBytes(data []byte) (*IblEnv, error) {
	return DecodeIblEnv(bytes.NewReader(data))
}
