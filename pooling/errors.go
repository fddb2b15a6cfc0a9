package pooling

import (
	"errors"

	"github.com/fyerfyer/fyer-pool/pooling/internal/perr"
)

// 对外暴露的错误类型，调用方使用 errors.Is 判断
var (
	ErrInvalidArgument    = perr.ErrInvalidArgument
	ErrAlreadyExists      = perr.ErrAlreadyExists
	ErrNotFound           = perr.ErrNotFound
	ErrTypeMismatch       = perr.ErrTypeMismatch
	ErrProcessorMissing   = perr.ErrProcessorMissing
	ErrInstanceNotTracked = perr.ErrInstanceNotTracked
)

// Reason 将错误归类为一个稳定的短名称，用作指标标签
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrProcessorMissing):
		return "processor_missing"
	case errors.Is(err, ErrInstanceNotTracked):
		return "instance_not_tracked"
	default:
		return "unknown"
	}
}
