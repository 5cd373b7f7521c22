package libio

import (
	"encoding/binary"
	"io"
)

// BinaryReader keeps the first error it encounters. Every later read is a no-op,
// so decoders can check Err once at the end.
type BinaryReader struct {
	Order     binary.ByteOrder
	Src       io.Reader
	Index     int
	LastIndex int
	Err       error
	buf       []byte
}

func NewBinaryReader(src io.Reader) *BinaryReader {
	return &BinaryReader{
		Order: binary.LittleEndian,
		Src:   src,
	}
}

// ReadBytes reads exactly n bytes into an internal buffer, see Bytes.
func (br *BinaryReader) ReadBytes(n int) (ok bool) {
	if br.Err != nil {
		return false
	}

	if cap(br.buf) < n {
		br.buf = make([]byte, n)
	} else {
		br.buf = br.buf[:n]
	}

	nread, err := io.ReadFull(br.Src, br.buf)
	br.LastIndex = br.Index
	br.Index += nread
	if err != nil {
		br.Err = err
		return false
	}
	return true
}

// Bytes returns the data of the last ReadBytes call. It is only valid until the next read.
func (br *BinaryReader) Bytes() []byte {
	return br.buf
}

func (br *BinaryReader) Read(p []byte) (n int, err error) {
	n, err = br.Src.Read(p)
	br.Index += n
	return
}

func (br *BinaryReader) ReadUInt32(i *uint32) (ok bool) {
	if !br.ReadBytes(4) {
		return false
	}
	*i = br.Order.Uint32(br.buf)
	return true
}

func (br *BinaryReader) ReadRef(data any) (ok bool) {
	if br.Err != nil {
		return false
	}
	err := binary.Read(br.Src, br.Order, data)
	br.LastIndex = br.Index
	if err != nil {
		br.Err = err
		return false
	}
	br.Index += binary.Size(data)
	return true
}

type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Err   error
	buf   [8]byte
}

func NewBinaryWriter(dst io.Writer) *BinaryWriter {
	return &BinaryWriter{
		Order: binary.LittleEndian,
		Dst:   dst,
	}
}

func (bw *BinaryWriter) WriteBytes(p []byte) (ok bool) {
	if bw.Err != nil {
		return false
	}

	_, err := bw.Dst.Write(p)
	if err != nil {
		bw.Err = err
		return false
	}
	return true
}

func (bw *BinaryWriter) Write(p []byte) (n int, err error) {
	return bw.Dst.Write(p)
}

func (bw *BinaryWriter) WriteUInt32(i uint32) (ok bool) {
	bw.Order.PutUint32(bw.buf[:4], i)
	return bw.WriteBytes(bw.buf[:4])
}

func (bw *BinaryWriter) WriteRef(data any) (ok bool) {
	if bw.Err != nil {
		return false
	}
	err := binary.Write(bw.Dst, bw.Order, data)
	bw.Err = err
	return err == nil
}
