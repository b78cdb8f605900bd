package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind 查询层错误分类：传输失败 / 查询失败 / 未找到。
// 空结果不是错误
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindQuery    ErrorKind = "query"
	KindNotFound ErrorKind = "notfound"
)

// Error 查询层对外的统一错误值。所有操作都返回它而不是裸 error，
// 调用方判空即可，任何失败都不会 panic 穿透出去。
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound 判断是否为"行不存在"
func IsNotFound(e *Error) bool {
	return e != nil && e.Kind == KindNotFound
}

// wrap 把 gorm 返回的错误规整成 *Error
func wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Message: "record not found", Err: err}
	}
	return &Error{Kind: KindQuery, Op: op, Message: "query failed", Err: err}
}

func queryError(op, message string, err error) *Error {
	return &Error{Kind: KindQuery, Op: op, Message: message, Err: err}
}
