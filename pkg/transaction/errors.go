package transaction

import "errors"

var (
	ErrNotActive     = errors.New("transaction is not active")
	ErrPrepareFailed = errors.New("transaction prepare failed")
	ErrInDoubt       = errors.New("transaction outcome is in doubt")
)
