package httpx

import "strconv"

const (
	StatusLine  = "HTTP/1.1 200 OK"
	ContentType = "text/html"
)

// BuildHeader returns the status line and headers for a body of n bytes,
// terminated by the blank line. Lines end in a bare "\n" unless crlf is set.
func BuildHeader(n int, crlf bool) []byte {
	eol := "\n"
	if crlf {
		eol = "\r\n"
	}
	h := make([]byte, 0, 64)
	h = append(h, StatusLine...)
	h = append(h, eol...)
	h = append(h, "Content-length: "...)
	h = strconv.AppendInt(h, int64(n), 10)
	h = append(h, eol...)
	h = append(h, "Content-Type: "...)
	h = append(h, ContentType...)
	h = append(h, eol...)
	h = append(h, eol...)
	return h
}
