package chrono

import (
	"sync"
	"time"

	// the campus runs on Asia/Shanghai, embedding tzdata keeps LoadLocation working
	// on minimal container images.
	_ "time/tzdata"
)

// DefaultLocation is the timezone the upstream systems schedule classes in.
const DefaultLocation = "Asia/Shanghai"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the system clock.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl creates a StandardImpl for the given IANA timezone name,
// an empty name falls back to DefaultLocation.
func NewStandardImpl(tz string) (StandardImpl, error) {
	if tz == "" {
		tz = DefaultLocation
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is an API whose time only moves when told to.
type FixedImpl struct {
	mutex    sync.Mutex
	current  time.Time
	location *time.Location
}

func NewFixedImpl(now time.Time) *FixedImpl {
	return &FixedImpl{current: now, location: now.Location()}
}

func (f *FixedImpl) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.current
}

func (f *FixedImpl) Location() *time.Location {
	return f.location
}

// Advance moves the clock forward by d.
func (f *FixedImpl) Advance(d time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.current = f.current.Add(d)
}
