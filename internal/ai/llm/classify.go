package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"formgen-workers/internal/common/errors"
)

// ErrorKind drives the retry state machine.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindTimeout
	KindAuth
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindCanceled:
		return "canceled"
	default:
		return "transient"
	}
}

// Retryable reports whether another attempt may follow.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient || k == KindTimeout
}

var nonRetryableMessages = []string{
	"invalid api key",
	"api key not valid",
	"authentication failed",
	"unauthorized",
	"forbidden",
	"bad request",
}

// Classify maps an attempt error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindTransient
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.HasCode(err, errors.ErrCodeLLMAuthFailed) {
		return KindAuth
	}
	if errors.HasCode(err, errors.ErrCodeLLMTimeout) {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, s := range nonRetryableMessages {
		if strings.Contains(msg, s) {
			return KindAuth
		}
	}
	return KindTransient
}
