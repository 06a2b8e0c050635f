package search

import (
	"github.com/conceptclarity/clarity/internal/gateway"
	lookup "github.com/conceptclarity/clarity/internal/search"
)

// resultMsg is sent when a lookup finishes.
type resultMsg struct {
	Result *lookup.Result
	Err    error
}

// mediaMsg is sent when the media lookup for search Seq finishes.
type mediaMsg struct {
	Seq   uint64
	Media *gateway.Media
	Err   error
}
