package errors

import (
	"net/http"
	"strconv"
)

// ErrorCode classifies an error for clients. The numbers go out on the wire, only append
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable // a dependency that may come back, retry later
	ErrorCodeTooManyRequests
	ErrorCodeInvalidArgument
	ErrorCodeValidation // request shape, reported with the field
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDB
	ErrorCodeDataFormat // source schema unusable, eg no date column
	ErrorCodeParse      // a row that could not be read under the strict policy
	ErrorCodeInsufficientHistory
	ErrorCodeComputation // the fit failed numerically
)

type codeInfo struct {
	name   string
	status int
}

var codes = [...]codeInfo{
	ErrorCodeUnknown:             {"unknown", http.StatusInternalServerError},
	ErrorCodePanic:               {"panic", http.StatusInternalServerError},
	ErrorCodeUnavailable:         {"unavailable", http.StatusServiceUnavailable},
	ErrorCodeTooManyRequests:     {"too_many_requests", http.StatusTooManyRequests},
	ErrorCodeInvalidArgument:     {"invalid_argument", http.StatusUnprocessableEntity},
	ErrorCodeValidation:          {"validation", http.StatusBadRequest},
	ErrorCodeJSON:                {"json", http.StatusBadRequest},
	ErrorCodeNotFound:            {"not_found", http.StatusNotFound},
	ErrorCodeDB:                  {"db", http.StatusInternalServerError},
	ErrorCodeDataFormat:          {"data_format", http.StatusUnprocessableEntity},
	ErrorCodeParse:               {"parse", http.StatusUnprocessableEntity},
	ErrorCodeInsufficientHistory: {"insufficient_history", http.StatusUnprocessableEntity},
	ErrorCodeComputation:         {"computation", http.StatusInternalServerError},
}

func (c ErrorCode) String() string {
	if int(c) < len(codes) {
		return codes[c].name
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}

// Status is the HTTP status the code answers with, unknown codes are 500
func (c ErrorCode) Status() int {
	if int(c) < len(codes) {
		return codes[c].status
	}
	return http.StatusInternalServerError
}
