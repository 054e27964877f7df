package fskit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NewHasher creates a new hash.Hash for the given algorithm.
// Returns an error if the algorithm is not supported.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported checksum algorithm: %s", ErrNotSupported, algorithm)
	}
}

// CalculateChecksum reads from the reader and calculates the checksum using
// the specified algorithm. Returns the hex-encoded checksum string.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksum returns the checksum of path on fsys. Providers implementing
// Checksummer hash without materializing the file; others are read through
// ReadContents.
func Checksum(fsys Reader, path Path, algorithm ChecksumAlgorithm) (string, error) {
	if cs, ok := fsys.(Checksummer); ok {
		return cs.Checksum(path, algorithm)
	}
	data, err := fsys.ReadContents(path)
	if err != nil {
		return "", err
	}
	return CalculateChecksum(strings.NewReader(data), algorithm)
}

// VerifyChecksum reports whether the file at path hashes to expected.
func VerifyChecksum(fsys Reader, path Path, expected string, algorithm ChecksumAlgorithm) (bool, error) {
	actual, err := Checksum(fsys, path, algorithm)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}

// sameContents compares two files by xxhash.
func sameContents(fsys Reader, a, b Path) (bool, error) {
	sa, err := Checksum(fsys, a, ChecksumXXHash)
	if err != nil {
		return false, err
	}
	sb, err := Checksum(fsys, b, ChecksumXXHash)
	if err != nil {
		return false, err
	}
	return sa == sb, nil
}
