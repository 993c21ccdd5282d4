package http

import (
	"encoding/json"
	"io"
	"mime"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// Cookie is a Set-Cookie response header under construction.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// ResponseCtx builds a response: status, headers, and cookies stay mutable
// until Close, which writes the head and body exactly once and then runs the
// dispose callback. The terminal helpers (Send, JSON, Data, Error, SendFile)
// close for the caller.
type ResponseCtx struct {
	w net.Conn

	status     int
	headerKeys []string
	headerVals []string
	cookies    []string
	body       []byte

	closed  bool
	onClose func()

	responseBuf []byte
}

// NewResponseCtx wraps the connection the response will be written to. The
// dispose callback may be nil; it runs once, after the first Close flushes.
func NewResponseCtx(conn net.Conn, onClose func()) *ResponseCtx {
	return &ResponseCtx{
		w:           conn,
		status:      200,
		onClose:     onClose,
		responseBuf: make([]byte, 0, 4096),
	}
}

// SetStatus sets the response status code.
func (c *ResponseCtx) SetStatus(code int) {
	c.status = code
}

// Status returns the status code the response will be sent with.
func (c *ResponseCtx) Status() int {
	return c.status
}

// SetHeader sets a response header, replacing any prior value.
func (c *ResponseCtx) SetHeader(key, value string) {
	for i, k := range c.headerKeys {
		if k == key {
			c.headerVals[i] = value
			return
		}
	}
	c.headerKeys = append(c.headerKeys, key)
	c.headerVals = append(c.headerVals, value)
}

// Header returns a previously set response header.
func (c *ResponseCtx) Header(key string) string {
	for i, k := range c.headerKeys {
		if k == key {
			return c.headerVals[i]
		}
	}
	return ""
}

// SetCookie appends a Set-Cookie header.
func (c *ResponseCtx) SetCookie(cookie *Cookie) {
	line := cookie.Name + "=" + cookie.Value
	if cookie.Path != "" {
		line += "; Path=" + cookie.Path
	}
	if cookie.Domain != "" {
		line += "; Domain=" + cookie.Domain
	}
	if cookie.MaxAge != 0 {
		line += "; Max-Age=" + strconv.Itoa(cookie.MaxAge)
	}
	if cookie.Secure {
		line += "; Secure"
	}
	if cookie.HTTPOnly {
		line += "; HttpOnly"
	}
	if cookie.SameSite != "" {
		line += "; SameSite=" + cookie.SameSite
	}
	c.cookies = append(c.cookies, line)
}

// Write appends to the response body without closing.
func (c *ResponseCtx) Write(data []byte) {
	c.body = append(c.body, data...)
}

// Send appends the data to the body and closes the response.
func (c *ResponseCtx) Send(data []byte) error {
	if c.Header("Content-Type") == "" {
		c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	}
	c.body = append(c.body, data...)
	return c.Close()
}

// SendString sends a text response and closes.
func (c *ResponseCtx) SendString(s string) error {
	return c.Send([]byte(s))
}

// JSON sends a JSON response and closes.
func (c *ResponseCtx) JSON(code int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		c.status = 500
		c.SetHeader("Content-Type", "text/plain; charset=utf-8")
		c.body = append(c.body[:0], "JSON marshal error"...)
		if closeErr := c.Close(); closeErr != nil {
			return closeErr
		}
		return err
	}

	c.status = code
	c.SetHeader("Content-Type", "application/json")
	c.body = append(c.body, data...)
	return c.Close()
}

// Data sends raw data with an explicit content type and closes.
func (c *ResponseCtx) Data(code int, contentType string, data []byte) error {
	c.status = code
	c.SetHeader("Content-Type", contentType)
	c.body = append(c.body, data...)
	return c.Close()
}

// Error sends an error response and closes.
func (c *ResponseCtx) Error(code int, message string) error {
	return c.JSON(code, map[string]any{
		"code":    code,
		"message": message,
	})
}

// NotFound sends a 404 and closes.
func (c *ResponseCtx) NotFound() error {
	c.status = 404
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.body = append(c.body, "Not Found"...)
	return c.Close()
}

// SendFile streams the file at path and closes. A missing or unreadable
// file answers 404. The content type comes from the file extension, and the
// bytes go out through the kernel sendfile path on TCP connections.
func (c *ResponseCtx) SendFile(path string) error {
	if c.closed {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		c.NotFound()
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		c.NotFound()
		if err == nil {
			err = os.ErrNotExist
		}
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.SetHeader("Content-Type", contentType)

	size := stat.Size()
	if _, err := c.w.Write(c.buildHead(int(size))); err != nil {
		c.finish()
		return err
	}

	err = c.streamFile(file, size)
	c.finish()
	return err
}

func (c *ResponseCtx) streamFile(file *os.File, size int64) error {
	if tcpConn, ok := c.w.(*net.TCPConn); ok {
		connFile, err := tcpConn.File()
		if err == nil {
			defer connFile.Close()
			connFd := int(connFile.Fd())
			fileFd := int(file.Fd())

			offset := int64(0)
			written := 0
			for written < int(size) {
				n, err := syscall.Sendfile(connFd, fileFd, &offset, int(size)-written)
				if err != nil {
					if err == syscall.EAGAIN || err == syscall.EINTR {
						continue
					}
					return err
				}
				if n == 0 {
					break
				}
				written += n
			}
			return nil
		}
	}

	_, err := io.Copy(c.w, file)
	return err
}

// Close writes the head and buffered body. Only the first call flushes and
// runs the dispose callback; later calls are no-ops.
func (c *ResponseCtx) Close() error {
	if c.closed {
		return nil
	}

	head := c.buildHead(len(c.body))
	if _, err := c.w.Write(head); err != nil {
		c.finish()
		return err
	}
	if len(c.body) > 0 {
		if _, err := c.w.Write(c.body); err != nil {
			c.finish()
			return err
		}
	}

	c.finish()
	return nil
}

// Closed reports whether the response has been flushed.
func (c *ResponseCtx) Closed() bool {
	return c.closed
}

func (c *ResponseCtx) finish() {
	c.closed = true
	if c.onClose != nil {
		onClose := c.onClose
		c.onClose = nil
		onClose()
	}
}

func (c *ResponseCtx) buildHead(contentLength int) []byte {
	c.responseBuf = c.responseBuf[:0]

	c.responseBuf = append(c.responseBuf, "HTTP/1.1 "...)
	c.responseBuf = appendInt(c.responseBuf, c.status)
	c.responseBuf = append(c.responseBuf, ' ')
	c.responseBuf = append(c.responseBuf, statusText(c.status)...)
	c.responseBuf = append(c.responseBuf, "\r\n"...)

	for i, key := range c.headerKeys {
		c.responseBuf = append(c.responseBuf, key...)
		c.responseBuf = append(c.responseBuf, ": "...)
		c.responseBuf = append(c.responseBuf, c.headerVals[i]...)
		c.responseBuf = append(c.responseBuf, "\r\n"...)
	}
	for _, cookie := range c.cookies {
		c.responseBuf = append(c.responseBuf, "Set-Cookie: "...)
		c.responseBuf = append(c.responseBuf, cookie...)
		c.responseBuf = append(c.responseBuf, "\r\n"...)
	}

	c.responseBuf = append(c.responseBuf, "Content-Length: "...)
	c.responseBuf = appendInt(c.responseBuf, contentLength)
	c.responseBuf = append(c.responseBuf, "\r\n\r\n"...)

	return c.responseBuf
}

// appendInt appends an integer to a byte slice
func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	if i < 0 {
		b = append(b, '-')
		i = -i
	}

	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}

	for n > 0 {
		n--
		b = append(b, digits[n])
	}

	return b
}
