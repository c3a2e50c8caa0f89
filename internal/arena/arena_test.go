package arena

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/fieldsim/internal/battery"
	"github.com/san-kum/fieldsim/internal/control"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/gyro"
	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/motor"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

func swerveConfig() drivetrain.SwerveConfig {
	drive := mechanism.DefaultConfig(motor.KrakenX60(1))
	drive.Gearing = motor.Reduction(6.75)
	steer := mechanism.DefaultConfig(motor.Falcon500(1))
	steer.Gearing = motor.Reduction(21.43)
	return drivetrain.SwerveConfig{
		Chassis: drivetrain.ChassisConfig{Mass: 50, MOI: 5, BumperLength: 0.9, BumperWidth: 0.9},
		Module: drivetrain.ModuleConfig{
			Drive:       drive,
			Steer:       steer,
			WheelRadius: 0.05,
			WheelCOF:    1.2,
		},
		ModuleTranslations: drivetrain.SquareModules(0.6, 0.6),
		Gyro:               gyro.Ideal(),
	}
}

func disc(name string) gamepiece.Variant {
	return gamepiece.Variant{
		Type:                        name,
		Height:                      0.05,
		Mass:                        0.2,
		Shape:                       physics.Circle{Radius: 0.15},
		PlaceOnFieldWhenTouchGround: true,
		LandingDampening:            0.2,
	}
}

// frontIntake spans 0.3 m ahead of the bumper.
var frontIntake = geom.Rectangle2d{Center: mgl64.Vec2{0.6, 0}, XWidth: 0.3, YWidth: 0.6}

type seeded struct {
	Empty
	positions []mgl64.Vec2
}

func (s seeded) PlaceGamePieces(a *Arena) error {
	for _, p := range s.positions {
		g, err := a.CreateGamePiece(disc("disc"))
		if err != nil {
			return err
		}
		g.Place(p)
	}
	return nil
}

var _ = Describe("Arena", func() {
	var (
		arena *Arena
		logs  *observer.ObservedLogs
	)

	BeforeEach(func() {
		core, observed := observer.New(zapcore.WarnLevel)
		logs = observed
		var err error
		arena, err = New(nil, dynamo.DefaultTiming(), WithLogger(zap.New(core)))
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects invalid timing", func() {
		_, err := New(nil, dynamo.Timing{})
		Expect(err).To(MatchError(dynamo.ErrInvalidTiming))

		_, err = New(nil, dynamo.Timing{Period: 0.02, TicksPerPeriod: 5, Dt: 1})
		Expect(err).To(MatchError(dynamo.ErrInvalidTiming))
	})

	It("derives dt from the period and sub-tick count", func() {
		a, err := New(nil, dynamo.Timing{Period: 0.02, TicksPerPeriod: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Timing().Dt).To(BeNumerically("~", 0.005, 1e-12))
	})

	It("builds the season's obstacles", func() {
		field := physics.NewFieldMap().
			AddBorderLine(mgl64.Vec2{0, 0}, mgl64.Vec2{10, 0}).
			AddRectangle(1, 1, mgl64.Vec2{5, 5}, 0)
		a, err := New(Empty{Field: field}, dynamo.DefaultTiming())
		Expect(err).NotTo(HaveOccurred())
		Expect(a.World().BodyCount()).To(Equal(2))
	})

	It("advances the sim clock by one period per call", func() {
		for i := 0; i < 50; i++ {
			arena.SimulationPeriodic()
		}
		Expect(arena.SimTime()).To(BeNumerically("~", 1.0, 1e-9))
		Expect(arena.Periods()).To(Equal(int64(50)))
	})

	It("hands new pieces to the caller in limbo", func() {
		g, err := arena.CreateGamePiece(disc("disc"))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.State()).To(Equal(gamepiece.Limbo))
		Expect(g.IsUserControlled()).To(BeTrue())
		Expect(arena.GamePieces()).To(ConsistOf(g))
	})

	It("lands flying pieces during the sub-ticks", func() {
		g, _ := arena.CreateGamePiece(disc("disc"))
		g.Launch(geom.NewPose3d(3, 3, 0.5, 0), mgl64.Vec3{1, 0, 0}, gamepiece.Gravity(9.8))

		for i := 0; i < 25 && g.IsInState(gamepiece.InFlight); i++ {
			arena.SimulationPeriodic()
		}
		Expect(g.State()).To(Equal(gamepiece.OnField))
		Expect(arena.GamePiecesIn(gamepiece.OnField)).To(ConsistOf(g))
	})

	Describe("ResetFieldForAuto", func() {
		It("replaces every piece with the season's layout", func() {
			a, err := New(seeded{positions: []mgl64.Vec2{{2, 2}, {4, 4}, {6, 6}}}, dynamo.DefaultTiming())
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ResetFieldForAuto()).To(Succeed())
			first := a.GamePieces()
			Expect(first).To(HaveLen(3))
			Expect(a.World().BodyCount()).To(Equal(3))

			Expect(a.ResetFieldForAuto()).To(Succeed())
			Expect(a.GamePiecesIn(gamepiece.OnField)).To(HaveLen(3))
			Expect(a.World().BodyCount()).To(Equal(3))
			for _, g := range first {
				Expect(g.State()).To(Equal(gamepiece.Limbo))
			}
		})
	})

	Describe("robots and intakes", func() {
		var (
			robot  *Robot
			intake *Intake
			note   gamepiece.Variant
		)

		BeforeEach(func() {
			var err error
			robot, err = NewRobot(arena, swerveConfig(), 1)
			Expect(err).NotTo(HaveOccurred())
			note = disc("note")
			intake, err = robot.CreateIntake(frontIntake, note)
			Expect(err).NotTo(HaveOccurred())
		})

		placeAhead := func(v gamepiece.Variant) *gamepiece.GamePiece {
			g, err := arena.CreateGamePiece(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Place(mgl64.Vec2{0.6, 0})).To(BeTrue())
			return g
		}

		It("registers drivetrain mechanisms with the robot and battery", func() {
			Expect(robot.Mechanisms()).To(HaveLen(8))
			Expect(arena.Robots()).To(ConsistOf(robot))
		})

		It("picks up a touching piece while running", func() {
			g := placeAhead(note)
			intake.Start()
			arena.SimulationPeriodic()

			Expect(g.State()).To(Equal(gamepiece.Held))
			Expect(robot.Indexer().Pieces()).To(ConsistOf(g))
			Expect(arena.World().BodyCount()).To(Equal(1))
		})

		It("ignores pieces while stopped", func() {
			g := placeAhead(note)
			intake.Start()
			intake.Stop()
			arena.SimulationPeriodic()
			Expect(g.State()).To(Equal(gamepiece.OnField))
			Expect(robot.Indexer().Len()).To(BeZero())
		})

		It("ignores variants it does not accept", func() {
			g := placeAhead(disc("cube"))
			intake.Start()
			arena.SimulationPeriodic()
			Expect(g.State()).To(Equal(gamepiece.OnField))
		})

		It("refuses user-controlled pieces with a warning", func() {
			g := placeAhead(note)
			g.Grant()
			intake.Start()
			arena.SimulationPeriodic()

			Expect(g.State()).To(Equal(gamepiece.OnField))
			Expect(logs.FilterMessage("indexer refused game piece").Len()).To(Equal(1))
		})

		It("stops at capacity", func() {
			placeAhead(note)
			g2, _ := arena.CreateGamePiece(note)
			g2.Place(mgl64.Vec2{0.6, 0.2})
			intake.Start()
			arena.SimulationPeriodic()

			Expect(robot.Indexer().Len()).To(Equal(1))
			Expect(arena.GamePiecesIn(gamepiece.Held)).To(HaveLen(1))
		})

		It("hands removed pieces back to the caller", func() {
			placeAhead(note)
			intake.Start()
			arena.SimulationPeriodic()

			g, ok := robot.Indexer().Remove()
			Expect(ok).To(BeTrue())
			Expect(g.IsUserControlled()).To(BeTrue())
			Expect(g.Launch(geom.NewPose3d(0, 0, 0.5, 0), mgl64.Vec3{5, 0, 2}, gamepiece.Gravity(9.8))).To(BeTrue())
		})

		It("empties inventories on reset", func() {
			g := placeAhead(note)
			intake.Start()
			arena.SimulationPeriodic()
			Expect(arena.ResetFieldForAuto()).To(Succeed())

			Expect(robot.Indexer().Len()).To(BeZero())
			Expect(g.State()).To(Equal(gamepiece.Limbo))
		})
	})

	Describe("supply voltage", func() {
		It("uses the nominal voltage by default", func() {
			r, err := NewRobot(arena, swerveConfig(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.SupplyVoltage()).To(Equal(battery.NominalVoltage))
		})

		It("sags under load in battery mode", func() {
			factory := func(int) (mechanism.Controller, mechanism.Controller) {
				return control.NewOpenLoop(12), nil
			}
			r, err := NewRobot(arena, swerveConfig(), 0,
				WithSupplyMode(SupplyBattery), WithModuleControllers(factory))
			Expect(err).NotTo(HaveOccurred())
			arena.SimulationPeriodic()
			Expect(r.SupplyVoltage()).To(BeNumerically("<", battery.NominalVoltage))
			Expect(r.SupplyVoltage()).To(BeNumerically(">", 0))
		})
	})
})

var _ = Describe("Arena telemetry", func() {
	It("exports piece counts, scores and sim time", func() {
		reg := prometheus.NewRegistry()
		m, err := telemetry.NewArenaMetrics(reg, "fieldsim")
		Expect(err).NotTo(HaveOccurred())
		rec := telemetry.NewRecorder(0)

		a, err := New(nil, dynamo.DefaultTiming(), WithMetrics(m), WithSink(rec))
		Expect(err).NotTo(HaveOccurred())

		v := disc("disc")
		v.Targets = []gamepiece.Target{gamepiece.NewTarget(mgl64.Vec3{4, -1, 0}, mgl64.Vec3{6, 1, 2})}
		shot, _ := a.CreateGamePiece(v)
		shot.Launch(geom.NewPose3d(0, 0, 1, 0), mgl64.Vec3{10, 0, 0}, gamepiece.ZeroDynamics())
		resting, _ := a.CreateGamePiece(v)
		resting.Place(mgl64.Vec2{8, 8})

		for i := 0; i < 50; i++ {
			a.SimulationPeriodic()
		}

		Expect(testutil.ToFloat64(m.Scored.WithLabelValues("disc"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.Pieces.WithLabelValues("on_field"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.Pieces.WithLabelValues("limbo"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.SimTime)).To(BeNumerically("~", 1.0, 1e-9))
		Expect(testutil.CollectAndCount(m.PeriodSeconds)).To(Equal(1))

		Expect(rec.Series("Arena/PeriodCPUTimeMS")).To(HaveLen(50))
		Expect(rec.Series("Arena/Scored/disc")).To(HaveLen(1))
		Expect(a.Scores()).To(BeEquivalentTo(1))
	})
})
