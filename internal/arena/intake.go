package arena

import (
	"sync"
	"sync/atomic"

	"github.com/ByteArena/box2d"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

// Intake is a retractable fixture on the chassis. While running, accepted
// pieces that touch it are moved into the robot's indexer.
type Intake struct {
	robot    *Robot
	shape    physics.Shape
	accepted []gamepiece.Variant
	log      *zap.Logger

	running atomic.Bool

	mu      sync.Mutex
	fixture *box2d.B2Fixture
	pending []*gamepiece.GamePiece

	removeListener func()
}

func newIntake(r *Robot, box geom.Rectangle2d, accepted []gamepiece.Variant) (*Intake, error) {
	shape := physics.Rectangle{
		XWidth: box.XWidth,
		YWidth: box.YWidth,
		Center: box.Center,
		Angle:  box.Heading,
	}
	if err := physics.Validate(shape); err != nil {
		return nil, err
	}
	in := &Intake{
		robot:    r,
		shape:    shape,
		accepted: accepted,
		log:      r.log,
	}
	in.removeListener = r.arena.world.AddContactListener(physics.ContactFunc(in.beginContact))
	return in, nil
}

func (in *Intake) Running() bool {
	return in.running.Load()
}

// Start extends the intake. Starting a running intake does nothing.
func (in *Intake) Start() {
	if in.running.Swap(true) {
		return
	}
	f, err := in.robot.drivetrain.Chassis().AddFixture(in.shape, in)
	if err != nil {
		in.log.Error("extending intake", zap.Error(err))
		in.running.Store(false)
		return
	}
	in.mu.Lock()
	in.fixture = f
	in.mu.Unlock()
}

// Stop retracts the intake. Stopping a stopped intake does nothing.
func (in *Intake) Stop() {
	if !in.running.Swap(false) {
		return
	}
	in.mu.Lock()
	f := in.fixture
	in.fixture = nil
	in.pending = nil
	in.mu.Unlock()
	if f != nil {
		in.robot.drivetrain.Chassis().RemoveFixture(f)
	}
}

// Close retracts the intake and stops listening for contacts.
func (in *Intake) Close() {
	in.Stop()
	in.removeListener()
}

// beginContact runs inside the world step and must not touch the world lock.
func (in *Intake) beginContact(a, b *box2d.B2Fixture) {
	if !in.running.Load() {
		return
	}
	var piece *gamepiece.GamePiece
	switch {
	case a.GetUserData() == in:
		piece, _ = b.GetUserData().(*gamepiece.GamePiece)
	case b.GetUserData() == in:
		piece, _ = a.GetUserData().(*gamepiece.GamePiece)
	}
	if piece == nil || !piece.IsOfVariant(in.accepted...) {
		return
	}
	in.mu.Lock()
	in.pending = append(in.pending, piece)
	in.mu.Unlock()
}

// drain hands the pieces touched during the last step to the indexer.
func (in *Intake) drain() {
	in.mu.Lock()
	pending := in.pending
	in.pending = nil
	in.mu.Unlock()

	seen := make(map[*gamepiece.GamePiece]bool, len(pending))
	for _, g := range pending {
		if seen[g] {
			continue
		}
		seen[g] = true
		if in.robot.indexer.Full() {
			in.log.Debug("indexer full, ignoring game piece", zap.Stringer("piece", g.ID()))
			continue
		}
		in.robot.indexer.Insert(g)
	}
}
