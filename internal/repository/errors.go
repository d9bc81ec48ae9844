package repository

import "errors"

var (
	// ErrDuplicateExternalID 唯一索引 external_id 冲突
	ErrDuplicateExternalID = errors.New("repository: duplicate external id")
	// ErrDuplicateUsername 唯一索引 username 冲突
	ErrDuplicateUsername = errors.New("repository: duplicate username")
	// ErrNoMatch 更新时目标文档不存在
	ErrNoMatch = errors.New("repository: no document matched")
)
