// Package code defines the error kinds shared by the sync, merge and storage
// layers. Each kind is a registered *Code value; call sites wrap a clone with
// details so the sentinel itself is never mutated, and errors.Is matches by
// numeric code across clones.
package code

import (
	"fmt"
	"strings"
)

type Code struct {
	// 状态码
	code int
	// 错误消息
	msg string
	// 错误详细信息
	details []string
}

var codes = map[int]string{}

// NewError 注册一个新的错误码
func NewError(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = msg
	return &Code{code: code, msg: msg}
}

func (e *Code) Error() string {
	if len(e.details) == 0 {
		return e.msg
	}
	return e.msg + ": " + strings.Join(e.details, "; ")
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Msg() string {
	return e.msg
}

func (e *Code) Details() []string {
	return e.details
}

// WithDetails 返回携带详情的副本，注册的原值保持不变
func (e *Code) WithDetails(details ...string) *Code {
	clone := &Code{code: e.code, msg: e.msg}
	clone.details = append(clone.details, e.details...)
	clone.details = append(clone.details, details...)
	return clone
}

// Is 按错误码匹配，使 errors.Is 可以穿透 WithDetails 副本
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && t.code == e.code
}

var (
	// ErrAuthRequired 未找到有效的 B 站会话凭证
	ErrAuthRequired = NewError(10001, "bilibili session credential missing or expired")
	// ErrStoreUnavailable 本地数据库打开失败
	ErrStoreUnavailable = NewError(10002, "local store failed to open")
	// ErrWriteFailed 批量写入部分或全部失败，已写入的记录不会回滚
	ErrWriteFailed = NewError(10003, "one or more records failed to persist")
	// ErrRemoteRejected 远端接口返回了非零业务码
	ErrRemoteRejected = NewError(10004, "remote api rejected the request")
	// ErrNetworkFailure 传输层失败
	ErrNetworkFailure = NewError(10005, "network transport failure")
	// ErrAlreadyInProgress 同步互斥守卫已被占用，非错误性提示
	ErrAlreadyInProgress = NewError(10006, "sync already in progress")
	// ErrBadFormat 导入文件格式无法识别
	ErrBadFormat = NewError(10007, "unrecognized data format")
)
