package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrDocumentRetrieval    = errors.New("获取简历文档失败")
	ErrExtractionFailed     = errors.New("提取简历文本失败")
	ErrSaveFailed           = errors.New("保存抽取结果失败")
	ErrProcessingInProgress = errors.New("简历正在处理中")
	ErrInvalidInput         = errors.New("无效的处理请求")
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	ResumeID string
	Op       string
	BaseErr  error
	Detail   string
	Cause    error // 底层错误，例如 *parser.ExtractionError
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, ID:%s): %s", e.BaseErr, e.Op, e.ResumeID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, ID:%s)", e.BaseErr, e.Op, e.ResumeID)
}

// Unwrap 同时暴露哨兵错误和底层错误
func (e *ResumeProcessError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return e.BaseErr == target
}

func detailOf(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

// 错误构造函数
func NewRetrievalError(id string, cause error) error {
	return &ResumeProcessError{
		ResumeID: id,
		Op:       "fetch",
		BaseErr:  ErrDocumentRetrieval,
		Detail:   detailOf(cause),
		Cause:    cause,
	}
}

func NewExtractionError(id string, cause error) error {
	return &ResumeProcessError{
		ResumeID: id,
		Op:       "extract",
		BaseErr:  ErrExtractionFailed,
		Detail:   detailOf(cause),
		Cause:    cause,
	}
}

func NewSaveError(id string, cause error) error {
	return &ResumeProcessError{
		ResumeID: id,
		Op:       "save",
		BaseErr:  ErrSaveFailed,
		Detail:   detailOf(cause),
		Cause:    cause,
	}
}

func NewInProgressError(id string) error {
	return &ResumeProcessError{
		ResumeID: id,
		Op:       "lock",
		BaseErr:  ErrProcessingInProgress,
	}
}

// IsRetryable 抽取和获取失败可以由用户更换文件后重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrExtractionFailed) || errors.Is(err, ErrDocumentRetrieval)
}
