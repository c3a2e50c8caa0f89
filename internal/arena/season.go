package arena

import "github.com/san-kum/fieldsim/internal/physics"

// Season supplies a field layout and the rules that run every period.
type Season interface {
	Name() string
	FieldMap() *physics.FieldMap
	// PlaceGamePieces seeds the field for autonomous.
	PlaceGamePieces(a *Arena) error
	// CompetitionPeriodic runs once per period before the sub-ticks.
	CompetitionPeriodic(a *Arena)
}

// Empty is a season with a fixed field and no rules.
type Empty struct {
	Field *physics.FieldMap
}

func (Empty) Name() string { return "empty" }

func (e Empty) FieldMap() *physics.FieldMap {
	if e.Field == nil {
		return physics.NewFieldMap()
	}
	return e.Field
}

func (Empty) PlaceGamePieces(*Arena) error { return nil }
func (Empty) CompetitionPeriodic(*Arena)   {}
