package s3test

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// isStreamingPayload reports whether the request body uses the AWS chunked
// upload encoding, signed or unsigned.
func isStreamingPayload(contentSHA string) bool {
	return strings.HasPrefix(strings.ToUpper(contentSHA), "STREAMING-")
}

// decodeStreamingPayload decodes an AWS Signature Version 4 streaming
// (chunked) payload. Chunk signatures and trailers are not verified.
func decodeStreamingPayload(body io.Reader) ([]byte, error) {
	br := bufio.NewReader(body)
	var out bytes.Buffer

	for {
		// Each chunk begins with: <size-hex>[;extensions]\r\n
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("unexpected EOF while reading chunk header")
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		// Strip any chunk extensions (e.g. ";chunk-signature=...").
		if idx := strings.IndexByte(line, ';'); idx != -1 {
			line = line[:idx]
		}

		sizeHex := strings.TrimSpace(line)
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chunk size %q: %w", sizeHex, err)
		}

		if size == 0 {
			// Whatever follows the final chunk is trailer data.
			_, _ = io.Copy(io.Discard, br)
			break
		}

		n, err := io.CopyN(&out, br, size)
		if err != nil {
			return nil, fmt.Errorf("read chunk body: expected %d bytes, got %d: %w", size, n, err)
		}

		// Consume the trailing CRLF after the chunk body.
		crlf := make([]byte, 2)
		if _, err := io.ReadFull(br, crlf); err != nil {
			return nil, fmt.Errorf("read CRLF after chunk: %w", err)
		}
		if crlf[0] != '\r' || crlf[1] != '\n' {
			return nil, fmt.Errorf("expected CRLF after chunk, got %q", crlf)
		}
	}

	return out.Bytes(), nil
}
