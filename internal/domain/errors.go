package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrProviderFailure   = errors.New("provider failure")
	ErrDuplicateVariant  = errors.New("duplicate variant key")
	ErrUnknownVariant    = errors.New("unknown variant key")
	ErrInvalidTransition = errors.New("invalid job transition")
	ErrStageBlocked      = errors.New("pipeline stage blocked")
	ErrStaleRun          = errors.New("stale run result")
	ErrRunNotSettled     = errors.New("run not settled")
	ErrPersistence       = errors.New("persistence failure")
	ErrEmptyPlan         = errors.New("plan enumerates no variants")
)
