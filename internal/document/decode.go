package document

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compression identifies how an input was wrapped on disk.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionXZ    Compression = "xz"
)

// DecodeError reports a failure in the byte-level input codec. It is kept
// distinct from pipeline errors so callers can surface the codec's
// diagnostic verbatim.
type DecodeError struct {
	Compression Compression
	Diagnostic  string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %s input: %s: %v", e.Compression, e.Diagnostic, e.Err)
	}
	return fmt.Sprintf("decoding %s input: %s", e.Compression, e.Diagnostic)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// maxDecodedBytes caps decompression output. A hostile gzip bomb should
// fail with a diagnostic, not exhaust memory.
const maxDecodedBytes = 2 << 30 // 2 GiB

// Decode turns raw transport bytes into document text. Gzip, bzip2, and xz
// wrappers are detected by magic bytes; a tar archive (bare or inside the
// compression layer) is unwrapped to its first XML-looking entry. Plain
// input passes through untouched.
func Decode(raw []byte) (string, Compression, error) {
	comp := detectCompression(raw)

	var reader io.Reader = bytes.NewReader(raw)
	switch comp {
	case CompressionGzip:
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return "", comp, &DecodeError{Compression: comp, Diagnostic: "corrupt gzip header", Err: err}
		}
		defer gz.Close()
		reader = gz
	case CompressionBzip2:
		reader = bzip2.NewReader(reader)
	case CompressionXZ:
		xzr, err := xz.NewReader(reader)
		if err != nil {
			return "", comp, &DecodeError{Compression: comp, Diagnostic: "corrupt xz header", Err: err}
		}
		reader = xzr
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxDecodedBytes+1))
	if err != nil {
		return "", comp, &DecodeError{Compression: comp, Diagnostic: "decompression failed", Err: err}
	}
	if len(data) > maxDecodedBytes {
		return "", comp, &DecodeError{Compression: comp, Diagnostic: "decompressed output exceeds 2GiB cap"}
	}

	if isTar(data) {
		text, err := extractTarEntry(data)
		if err != nil {
			return "", comp, err
		}
		return text, comp, nil
	}

	return string(data), comp, nil
}

func detectCompression(raw []byte) Compression {
	switch {
	case len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b:
		return CompressionGzip
	case len(raw) >= 3 && raw[0] == 'B' && raw[1] == 'Z' && raw[2] == 'h':
		return CompressionBzip2
	case len(raw) >= 6 && bytes.Equal(raw[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

func isTar(data []byte) bool {
	// "ustar" magic at offset 257 in the first header block.
	return len(data) >= 263 && bytes.Equal(data[257:262], []byte("ustar"))
}

// extractTarEntry returns the first archive entry that looks like an XML
// document, preferring *.xml names over a generic content sniff.
func extractTarEntry(data []byte) (string, error) {
	tr := tar.NewReader(bytes.NewReader(data))
	var fallback string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &DecodeError{Compression: CompressionNone, Diagnostic: "corrupt tar archive", Err: err}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(tr, maxDecodedBytes+1))
		if err != nil {
			return "", &DecodeError{Compression: CompressionNone, Diagnostic: "reading tar entry " + hdr.Name, Err: err}
		}
		text := string(body)
		if strings.HasSuffix(strings.ToLower(hdr.Name), ".xml") {
			return text, nil
		}
		if fallback == "" && strings.Contains(text, "<") {
			fallback = text
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", &DecodeError{Compression: CompressionNone, Diagnostic: "tar archive contains no XML entry"}
}
