package collector

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	runEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	runEntropyMu sync.Mutex
)

// NewRunID returns a time-ordered id for a collection run.
func NewRunID() string {
	runEntropyMu.Lock()
	defer runEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), runEntropy).String()
}
