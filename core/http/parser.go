package http

import (
	"bufio"
	"errors"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

var (
	ErrInvalidRequest = errors.New("invalid HTTP request")
	ErrBodyTooLarge   = errors.New("request body too large")
)

// MaxBodySize caps the request body the parser will buffer.
const MaxBodySize = 8 << 20

// ReadRequest reads and parses a single HTTP/1.x request from the stream.
// The reader is left positioned after the request body, so a keep-alive
// connection can call ReadRequest again for the next request.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}

	req := AcquireRequest()

	// Parse METHOD PATH PROTO
	sp1 := strings.IndexByte(line, ' ')
	if sp1 == -1 {
		ReleaseRequest(req)
		return nil, ErrInvalidRequest
	}
	sp2 := strings.IndexByte(line[sp1+1:], ' ')
	if sp2 == -1 {
		ReleaseRequest(req)
		return nil, ErrInvalidRequest
	}
	sp2 += sp1 + 1

	req.Method = line[:sp1]
	req.Path = line[sp1+1 : sp2]
	req.Proto = line[sp2+1:]

	if req.Method == "" || req.Path == "" {
		ReleaseRequest(req)
		return nil, ErrInvalidRequest
	}

	// Parse query parameters
	if idx := strings.IndexByte(req.Path, '?'); idx != -1 {
		parseQuery(req, req.Path[idx+1:])
		req.Path = req.Path[:idx]
	}

	// Parse headers until the blank line
	for {
		line, err := readLine(br)
		if err != nil {
			ReleaseRequest(req)
			return nil, err
		}
		if line == "" {
			break
		}

		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		req.SetHeader(key, value)
	}

	// Read the body when a Content-Length is present
	if req.ContentLength != "" {
		n, err := strconv.Atoi(req.ContentLength)
		if err != nil || n < 0 {
			ReleaseRequest(req)
			return nil, ErrInvalidRequest
		}
		if n > MaxBodySize {
			ReleaseRequest(req)
			return nil, ErrBodyTooLarge
		}
		if n > 0 {
			if cap(req.Body) < n {
				req.Body = make([]byte, n)
			} else {
				req.Body = req.Body[:n]
			}
			if _, err := io.ReadFull(br, req.Body); err != nil {
				ReleaseRequest(req)
				return nil, err
			}
		}
	}

	return req, nil
}

// readLine reads a CRLF- or LF-terminated line without the terminator.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// parseQuery parses query parameters
func parseQuery(req *Request, queryStr string) {
	if req.Query == nil {
		req.Query = make(map[string]string)
	}

	for _, pair := range strings.Split(queryStr, "&") {
		if pair == "" {
			continue
		}
		if eq := strings.IndexByte(pair, '='); eq != -1 {
			req.Query[pair[:eq]] = pair[eq+1:]
		} else {
			req.Query[pair] = ""
		}
	}
}
