package mongodb

import "errors"

var (
	ErrConnectFailed  = errors.New("failed to connect to mongodb")
	ErrPingFailed     = errors.New("failed to ping mongodb")
	ErrSessionFailed  = errors.New("failed to start mongodb session")
	ErrInvalidMapping = errors.New("invalid entity mapping")
	ErrNoKeyAccessor  = errors.New("entity mapping has no key accessor")
	ErrNotFound       = errors.New("document not found")
)
