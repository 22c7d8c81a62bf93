package dto

import "net/http"

// ErrorCode tells API clients which part of a request was rejected.
type ErrorCode string

const (
	ErrorCodeInvalidRequest  ErrorCode = "invalid_request"
	ErrorCodeInvalidFilter   ErrorCode = "invalid_filter"
	ErrorCodeInvalidSymbol   ErrorCode = "invalid_symbol"
	ErrorCodeInvalidPeriod   ErrorCode = "invalid_period"
	ErrorCodeInvalidInterval ErrorCode = "invalid_interval"
	ErrorCodeInternal        ErrorCode = "internal"
)

// ErrorDetail is attached to every failed response. FilterIndex and Operand
// point at the rejected screener criterion when there is one.
type ErrorDetail struct {
	Code        ErrorCode `json:"code"`
	FilterIndex *int      `json:"filter_index,omitempty"`
	Operand     string    `json:"operand,omitempty"`
}

type BaseResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

func NewSuccessResponse(data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    http.StatusOK,
		Message: "ok",
		Data:    data,
	}
}

func NewErrorResponse(status int, message string, detail ErrorDetail) *BaseResponse {
	return &BaseResponse{
		Code:    status,
		Message: message,
		Error:   &detail,
	}
}

func NewBadRequestResponse(code ErrorCode, message string) *BaseResponse {
	return NewErrorResponse(http.StatusBadRequest, message, ErrorDetail{Code: code})
}
