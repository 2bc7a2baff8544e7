package okr

import (
	"time"

	"github.com/akyairhashvil/okrcap/internal/event"
	"github.com/akyairhashvil/okrcap/internal/logging"
)

// DeletePolicy controls what DeleteNode does with descendants.
type DeletePolicy int

const (
	// DeleteCascade removes the node and its whole subtree.
	DeleteCascade DeletePolicy = iota
	// DeleteRestrict refuses to delete a node that still has children.
	DeleteRestrict
)

func (p DeletePolicy) String() string {
	if p == DeleteRestrict {
		return "restrict"
	}
	return "cascade"
}

// ParseDeletePolicy maps a config value to a policy; unknown values cascade.
func ParseDeletePolicy(s string) DeletePolicy {
	if s == "restrict" {
		return DeleteRestrict
	}
	return DeleteCascade
}

// Option configures a Store.
type Option func(*Store)

func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for new nodes.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithEventBus(bus *event.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l.WithComponent("okr") }
}
