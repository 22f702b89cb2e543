package threefish

import (
	"errors"
	"strconv"
)

var (
	// ErrTweakSize is returned when the tweak is neither empty nor TweakSize bytes.
	ErrTweakSize = errors.New("threefish: invalid tweak size")
	// ErrBufferSize is returned when a key or block does not match the requested block size.
	ErrBufferSize = errors.New("threefish: buffer does not match block size")
)

// SizeError is returned for block or key sizes other than 32, 64 or 128 bytes.
type SizeError int

func (s SizeError) Error() string {
	return "threefish: invalid block size " + strconv.Itoa(int(s))
}
