package repository

import "errors"

var (
	// ErrDuplicateKey 唯一键冲突
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrArchiveConflict 归档过程中行状态被并发修改
	ErrArchiveConflict = errors.New("archive conflict")
)
