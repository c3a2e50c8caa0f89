package arena

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/gamepiece"
)

// Indexer is a robot's piece inventory, first in first out.
type Indexer struct {
	capacity int
	accepted []gamepiece.Variant
	log      *zap.Logger

	mu     sync.Mutex
	pieces []*gamepiece.GamePiece
}

// NewIndexer holds up to capacity pieces of the accepted variants, or of any
// variant when none are given.
func NewIndexer(capacity int, log *zap.Logger, accepted ...gamepiece.Variant) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{
		capacity: max(capacity, 0),
		accepted: accepted,
		log:      log,
	}
}

func (x *Indexer) Capacity() int { return x.capacity }

func (x *Indexer) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pieces)
}

func (x *Indexer) Full() bool {
	return x.Len() >= x.capacity
}

func (x *Indexer) Accepts(g *gamepiece.GamePiece) bool {
	return len(x.accepted) == 0 || g.IsOfVariant(x.accepted...)
}

// Insert takes an on-field, library-controlled piece into the inventory.
// It reports false when the inventory is full or does not accept the
// variant. A piece that is not on the field or is user controlled is refused
// with a warning.
func (x *Indexer) Insert(g *gamepiece.GamePiece) bool {
	if !x.Accepts(g) {
		return false
	}
	return x.insert(g, false)
}

// ForceInsert is Insert without the capacity and variant checks.
func (x *Indexer) ForceInsert(g *gamepiece.GamePiece) bool {
	return x.insert(g, true)
}

func (x *Indexer) insert(g *gamepiece.GamePiece, force bool) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !force && len(x.pieces) >= x.capacity {
		return false
	}
	if !g.IsInState(gamepiece.OnField) || g.IsUserControlled() {
		x.log.Warn("indexer refused game piece",
			zap.Stringer("piece", g.ID()),
			zap.String("op", "intake"),
			zap.Stringer("state", g.State()),
			zap.Bool("userControlled", g.IsUserControlled()))
		return false
	}

	var ok bool
	g.WithLib(func(g *gamepiece.GamePiece) { ok = g.Intake() })
	if ok {
		x.pieces = append(x.pieces, g)
	}
	return ok
}

// Remove takes the oldest piece out and hands it to the caller's control,
// ready to be launched or placed.
func (x *Indexer) Remove() (*gamepiece.GamePiece, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.pieces) == 0 {
		return nil, false
	}
	g := x.pieces[0]
	x.pieces = slices.Delete(x.pieces, 0, 1)
	return g.Grant(), true
}

func (x *Indexer) Peek() (*gamepiece.GamePiece, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.pieces) == 0 {
		return nil, false
	}
	return x.pieces[0], true
}

func (x *Indexer) Pieces() []*gamepiece.GamePiece {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.pieces)
}

// Clear takes every held piece out of play.
func (x *Indexer) Clear() {
	x.mu.Lock()
	pieces := x.pieces
	x.pieces = nil
	x.mu.Unlock()

	for _, g := range pieces {
		if g.IsInState(gamepiece.Held) {
			g.WithLib(func(g *gamepiece.GamePiece) { g.Delete() })
		}
	}
}
