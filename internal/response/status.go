package response

type StatusCode int

const (
	OK          StatusCode = 200
	BAD_REQUEST StatusCode = 400
	FORBIDDEN   StatusCode = 403
	NOT_FOUND   StatusCode = 404
)

var StatusCodeName = map[StatusCode]string{
	OK:          "OK",
	BAD_REQUEST: "Bad Request",
	FORBIDDEN:   "Forbidden",
	NOT_FOUND:   "Not Found",
}

const httpVersion = "HTTP/1.0"

func (s StatusCode) Reason() string {
	if reason, ok := StatusCodeName[s]; ok {
		return reason
	}
	return "Unknown"
}

func (s StatusCode) IsError() bool {
	return s != OK
}
