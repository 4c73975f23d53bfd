package archive

import (
	"bytes"
	"encoding/binary"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"io"
	"math"
)

func compress(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := xz.NewWriter(&buffer)
	if err != nil {
		return nil, errors.Wrap(err, "could not create xz writer")
	}
	if _, err := writer.Write(data); err != nil {
		return nil, errors.Wrap(err, "could not compress data")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "could not finish compression")
	}
	return buffer.Bytes(), nil
}

func decompress(data []byte, byteSize int) ([]byte, error) {
	reader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not read xz stream")
	}
	buffer := bytes.NewBuffer(make([]byte, 0, byteSize))
	if _, err := io.Copy(buffer, reader); err != nil {
		return nil, errors.Wrap(err, "could not decompress data")
	}
	return buffer.Bytes(), nil
}

// Numeric arrays are stored little-endian.

func encodeFloat32(values []float32) []byte {
	data := make([]byte, len(values)*4)
	for i, value := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(value))
	}
	return data
}

func decodeFloat32(data []byte) []float32 {
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values
}

func encodeInt32(values []int32) []byte {
	data := make([]byte, len(values)*4)
	for i, value := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(value))
	}
	return data
}

func decodeInt32(data []byte) []int32 {
	values := make([]int32, len(data)/4)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values
}
