package filterset

import "errors"

var (
	ErrNoBlocks        = errors.New("filter set has no blocks")
	ErrLastBlock       = errors.New("cannot remove the last filter block")
	ErrIndexOutOfRange = errors.New("filter block index out of range")
	ErrNoDocument      = errors.New("no filter set given")
	ErrNoNavigator     = errors.New("no navigator given")
	ErrNoSaver         = errors.New("no saver configured")
	ErrNoCounter       = errors.New("no block counter configured")
)
