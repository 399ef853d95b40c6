package queryclient

import "errors"

var (
	ErrFetch  = errors.New("queryclient: fetch failed")
	ErrStore  = errors.New("queryclient: snapshot store failed")
	ErrEncode = errors.New("queryclient: failed to encode snapshot")
	ErrDecode = errors.New("queryclient: failed to decode snapshot")
)
