package jpeg

import "errors"

var (
	ErrInvalidMarker      = errors.New("jpeg: invalid marker")
	ErrUnsupportedFormat  = errors.New("jpeg: unsupported format")
	ErrInvalidHeader      = errors.New("jpeg: invalid header")
	ErrTruncatedData      = errors.New("jpeg: truncated data")
	ErrBadHuffmanTable    = errors.New("jpeg: bad huffman table")
	ErrCorruptData        = errors.New("jpeg: corrupt entropy data")
	ErrImageTooLarge      = errors.New("jpeg: image dimensions exceed limit")
	ErrBadProgressiveScan = errors.New("jpeg: inconsistent progressive scan")
	ErrDecodeFailed       = errors.New("jpeg: decode failed")
)
