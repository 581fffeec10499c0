package parser

import (
	"errors"
	"fmt"
)

// 文本提取失败的三类原因，可用 errors.Is 判断
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDecodeFailure     = errors.New("document decode failure")
	ErrEmptyContent      = errors.New("document contains no extractable text")
)

// ExtractionError 文档文本提取错误
type ExtractionError struct {
	Kind      error  // 上面三个哨兵之一
	MediaType string // 判定后的媒体类型
	Err       error  // 底层原因，可能为 nil
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (%s): %v", e.Kind, e.MediaType, e.Err)
	}
	return fmt.Sprintf("%v (%s)", e.Kind, e.MediaType)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is 支持与哨兵错误比较
func (e *ExtractionError) Is(target error) bool {
	return target == e.Kind
}

// KindName 返回用于日志和指标的短名称
func (e *ExtractionError) KindName() string {
	switch e.Kind {
	case ErrUnsupportedFormat:
		return "unsupported_format"
	case ErrDecodeFailure:
		return "decode_failure"
	case ErrEmptyContent:
		return "empty_content"
	default:
		return "unknown"
	}
}

func newExtractionError(kind error, mediaType string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, MediaType: mediaType, Err: cause}
}
