package downloader

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly"
)

// DecompressBody returns the decompressed form of an HTTP response
// body. Gzip is detected by its magic bytes; Brotli by the
// Content-Encoding header or, as a heuristic, by the first byte. Bodies
// that do not look compressed are returned unchanged.
func DecompressBody(body []byte, contentEncoding string) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, false, err
		}
		return decompressed, true, nil
	}

	if contentEncoding == "br" || (body[0] >= 0x80 && body[0] <= 0x8f) {
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			// Not Brotli after all; leave the body alone.
			return body, false, nil
		}
		return decompressed, true, nil
	}

	return body, false, nil
}

// DecompressCollyResponse decompresses a Colly response body in place.
// Intended for use in an OnResponse callback on collectors that talk to
// servers sending compressed content.
func DecompressCollyResponse(r *colly.Response) (bool, error) {
	if r == nil || len(r.Body) == 0 {
		return false, nil
	}
	decompressed, was, err := DecompressBody(r.Body, r.Headers.Get("Content-Encoding"))
	if err != nil {
		return false, err
	}
	if was {
		r.Body = decompressed
	}
	return was, nil
}
