package staticd

import "strconv"

const (
	statusOK         = 200
	statusBadRequest = 400
	statusNotFound   = 404
)

var (
	notFoundResponse   = []byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n")
	badRequestResponse = []byte("HTTP/1.1 400 Bad Request\r\nContent-Length: 0\r\n\r\n")
)

const okHeaderPrefix = "HTTP/1.1 200 OK\r\nContent-type: text/plain\r\nContent-Length: "

func okHeader(size int64) []byte {
	b := make([]byte, 0, len(okHeaderPrefix)+24)
	b = append(b, okHeaderPrefix...)
	b = strconv.AppendInt(b, size, 10)
	b = append(b, "\r\n\r\n"...)
	return b
}
