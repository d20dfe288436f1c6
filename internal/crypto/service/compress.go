package service

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

const (
	// minCompressionSavings is the fraction of bytes compression must save to be kept.
	minCompressionSavings = 0.10

	// maxDecompressedSize bounds a single field so a crafted payload cannot exhaust memory.
	maxDecompressedSize = 16 * 1024 * 1024
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd creates the shared encoder and decoder. Both are safe for concurrent EncodeAll/DecodeAll.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// maybeCompress compresses data when it is at least threshold bytes long and
// compression saves enough. It returns the data to seal and the header flag.
// A threshold <= 0 disables compression.
func maybeCompress(data []byte, threshold int) ([]byte, byte) {
	if threshold <= 0 || len(data) < threshold {
		return data, cryptoDomain.CompressionNone
	}

	encoder, _, err := initZstd()
	if err != nil {
		return data, cryptoDomain.CompressionNone
	}

	compressed := encoder.EncodeAll(data, nil)
	savings := float64(len(data)-len(compressed)) / float64(len(data))
	if savings < minCompressionSavings {
		return data, cryptoDomain.CompressionNone
	}

	return compressed, cryptoDomain.CompressionZstd
}

// decompress reverses maybeCompress according to the header flag.
func decompress(data []byte, flag byte) ([]byte, error) {
	switch flag {
	case cryptoDomain.CompressionNone:
		return data, nil
	case cryptoDomain.CompressionZstd:
		_, decoder, err := initZstd()
		if err != nil {
			return nil, err
		}
		out, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, cryptoDomain.ErrMalformedToken
		}
		if len(out) > maxDecompressedSize {
			return nil, cryptoDomain.ErrMalformedToken
		}
		return out, nil
	default:
		return nil, errors.Join(cryptoDomain.ErrMalformedToken, errors.New("unknown compression flag"))
	}
}
