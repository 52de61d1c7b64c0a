package vftmanager

import "errors"

var (
	ErrPaused                   = errors.New("vftmanager: bridging is paused")
	ErrNotPaused                = errors.New("vftmanager: not paused")
	ErrNoCorrespondingEthAddress = errors.New("vftmanager: token has no corresponding Ethereum address")
	ErrTokenAlreadyMapped       = errors.New("vftmanager: token already mapped")
	ErrBurnTokensFailed         = errors.New("vftmanager: burning/locking tokens from sender failed")
	ErrReplyFailure             = errors.New("vftmanager: bridge builtin message send failed")
	ErrInterruptedTransferNotFound = errors.New("vftmanager: no interrupted transfer found for this request id")
	ErrNotRecoverable           = errors.New("vftmanager: interrupted transfer is not in a recoverable state")
	ErrNotAdmin                 = errors.New("vftmanager: caller is not the admin")
	ErrNotPauseAdmin            = errors.New("vftmanager: caller is not the pause admin")
	ErrAmountBelowFee           = errors.New("vftmanager: bridged amount does not cover the bridge fee")
	ErrUpgradeRequiresPause     = errors.New("vftmanager: upgrade requires the manager to be paused first")
)
