package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

// Error 是service层对外暴露的错误，handler按Code决定HTTP状态码
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status 把错误分类映射成HTTP状态码
func (e *Error) Status() int {
	switch e.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func InvalidArgument(msg string) *Error { return &Error{Code: CodeInvalidArgument, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Code: CodeUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Code: CodeForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Code: CodeConflict, Message: msg} }

func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// From 把任意错误归类：已分类的原样返回，记录不存在算NotFound，其余都算Internal
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Code: CodeNotFound, Message: "资源不存在", Err: err}
	}
	return Internal("服务器内部错误", err)
}

// Is 判断错误链上是否有指定分类
func Is(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
