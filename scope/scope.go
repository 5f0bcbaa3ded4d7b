// Package scope implements a tree of scopes whose watchers are dirty-checked
// by a digest loop until the tree settles.
package scope

import (
	"log/slog"

	"github.com/delaneyj/digestparty/loop"
)

// DefaultTTL is the number of dirty passes a digest tolerates before giving up.
const DefaultTTL = 10

// Scheduler runs a task later, outside the current call stack.
// loop.Loop is the default implementation.
type Scheduler interface {
	Defer(task func())
}

type ErrorHandler func(s *Scope, err error)

// tree holds everything shared by the scopes reachable from one root:
// the phase, both queues and the configuration.
type tree struct {
	root *Scope

	phase           Phase
	asyncQueue      []asyncTask
	postDigestQueue []postDigestTask

	ttl       int
	lastID    uint64
	logger    *slog.Logger
	onError   ErrorHandler
	scheduler Scheduler
	equal     Equaler
	clone     Copier
	observers []DigestObserver
}

func (t *tree) nextID() uint64 {
	t.lastID++
	return t.lastID
}

// Scope is a node in the state tree. It holds application properties and
// the watchers registered against it.
type Scope struct {
	id        uint64
	props     *properties
	watchers  []*watcher
	children  []*Scope
	parent    *Scope
	root      *Scope
	isolated  bool
	destroyed bool

	// visitIndex is the watcher being evaluated, or -1 outside a pass.
	visitIndex int

	// lastDirtyWatch is only ever read or written on the root.
	lastDirtyWatch *watcher

	tree *tree
}

// NewRoot creates the root of a new scope tree.
func NewRoot(opts ...Option) *Scope {
	t := &tree{
		ttl:    DefaultTTL,
		logger: slog.Default(),
		equal:  DeepEqual,
		clone:  DeepCopy,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.scheduler == nil {
		t.scheduler = loop.New(loop.WithLogger(t.logger))
	}

	root := &Scope{
		id:         t.nextID(),
		props:      newProperties(nil),
		tree:       t,
		visitIndex: -1,
	}
	root.root = root
	t.root = root
	return root
}

func (s *Scope) ID() uint64 {
	return s.id
}

// Root returns the root of the tree this scope belongs to.
func (s *Scope) Root() *Scope {
	return s.root
}

// Parent returns the scope this one was spawned from, or nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) IsRoot() bool {
	return s == s.root
}

func (s *Scope) IsIsolated() bool {
	return s.isolated
}

// Children returns a copy of the scope's child list.
func (s *Scope) Children() []*Scope {
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	return children
}

func (s *Scope) WatcherCount() int {
	return len(s.watchers)
}

// Scheduler returns the scheduler used for deferred digests. When no
// scheduler was configured this is the *loop.Loop created by NewRoot, and it
// must be run for deferred digests to happen.
func (s *Scope) Scheduler() Scheduler {
	return s.tree.scheduler
}
