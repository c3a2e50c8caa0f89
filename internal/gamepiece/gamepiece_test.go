package gamepiece

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

func cylinder() Variant {
	return Variant{
		Type:   "cylinder",
		Height: 0.1,
		Mass:   0.1,
		Shape:  physics.Circle{Radius: 0.15},
		Targets: []Target{
			NewTarget(mgl64.Vec3{10, 10, 0}, mgl64.Vec3{10.5, 10.5, 0.2}),
		},
		PlaceOnFieldWhenTouchGround: true,
		LandingDampening:            0.5,
	}
}

var _ = Describe("GamePiece", func() {
	var (
		world *physics.World
		logs  *observer.ObservedLogs
		piece *GamePiece
	)

	newPiece := func(v Variant, opts ...Option) *GamePiece {
		core, observed := observer.New(zapcore.WarnLevel)
		logs = observed
		g, err := New(v, world, append([]Option{WithLogger(zap.New(core))}, opts...)...)
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	BeforeEach(func() {
		world = physics.NewWorld()
		piece = newPiece(cylinder())
	})

	It("starts in limbo under library control", func() {
		Expect(piece.State()).To(Equal(Limbo))
		Expect(piece.IsLibraryControlled()).To(BeTrue())
		Expect(piece.Pose().Translation).To(Equal(mgl64.Vec3{-1, -1, -1}))
	})

	It("rejects variants with unsupported shapes", func() {
		v := cylinder()
		v.Shape = physics.Circle{}
		_, err := New(v, world)
		Expect(err).To(HaveOccurred())
	})

	Describe("placing", func() {
		BeforeEach(func() {
			Expect(piece.Grant().Place(mgl64.Vec2{5, 5})).To(BeTrue())
		})

		It("rests on the field at half its height", func() {
			Expect(piece.State()).To(Equal(OnField))
			p := piece.Pose().Translation
			Expect(p.X()).To(BeNumerically("~", 5, 1e-3))
			Expect(p.Y()).To(BeNumerically("~", 5, 1e-3))
			Expect(p.Z()).To(BeNumerically("~", 0.05, 1e-3))
		})

		It("owns exactly one body in the world", func() {
			Expect(world.BodyCount()).To(Equal(1))
		})

		It("releases control", func() {
			Expect(piece.IsUserControlled()).To(BeFalse())
		})

		It("ignores delete without control", func() {
			Expect(piece.Delete()).To(BeFalse())
			Expect(piece.State()).To(Equal(OnField))
			Expect(world.BodyCount()).To(Equal(1))
			Expect(logs.Len()).To(Equal(1))
		})

		It("removes its body when deleted with control", func() {
			Expect(piece.Grant().Delete()).To(BeTrue())
			Expect(piece.State()).To(Equal(Limbo))
			Expect(world.BodyCount()).To(BeZero())
		})

		It("can be intaken by the simulation", func() {
			var ok bool
			piece.WithLib(func(g *GamePiece) { ok = g.Intake() })
			Expect(ok).To(BeTrue())
			Expect(piece.State()).To(Equal(Held))
			Expect(piece.IsLibraryControlled()).To(BeTrue())
			Expect(world.BodyCount()).To(BeZero())
			Expect(piece.Pose().Z()).To(Equal(-1000.0))
		})
	})

	Describe("guard", func() {
		ops := map[string]func(g *GamePiece) bool{
			"place":  func(g *GamePiece) bool { return g.Place(mgl64.Vec2{1, 1}) },
			"slide":  func(g *GamePiece) bool { return g.Slide(mgl64.Vec2{1, 1}, mgl64.Vec2{1, 0}) },
			"launch": func(g *GamePiece) bool { return g.Launch(geom.NewPose3d(1, 1, 1, 0), mgl64.Vec3{}, nil) },
			"intake": func(g *GamePiece) bool { return g.Intake() },
			"delete": func(g *GamePiece) bool { return g.Delete() },
		}

		It("logs exactly one warning per uncontrolled call", func() {
			for op, call := range ops {
				before := logs.Len()
				Expect(call(piece)).To(BeFalse(), op)
				Expect(piece.State()).To(Equal(Limbo), op)
				Expect(logs.Len()).To(Equal(before+1), op)

				fields := logs.All()[before].ContextMap()
				Expect(fields).To(HaveKeyWithValue("op", op))
				Expect(fields).To(HaveKeyWithValue("state", "limbo"))
				Expect(fields).To(HaveKeyWithValue("piece", piece.ID().String()))
			}
		})

		DescribeTable("from limbo with control",
			func(op string, ok bool, want State) {
				piece.Grant()
				Expect(ops[op](piece)).To(Equal(ok))
				Expect(piece.State()).To(Equal(want))
				Expect(piece.IsUserControlled()).To(Equal(!ok))
			},
			Entry("place", "place", true, OnField),
			Entry("slide", "slide", true, OnField),
			Entry("launch", "launch", true, InFlight),
			Entry("intake", "intake", false, Limbo),
			Entry("delete", "delete", false, Limbo),
		)
	})

	Describe("flight", func() {
		const dt = 0.02

		It("lands once it drops below the floor and re-grants control", func() {
			piece.Grant().Launch(geom.NewPose3d(2, 3, 1, 0), mgl64.Vec3{2, 0, -3}, ZeroDynamics())

			for i := 0; i < 16; i++ {
				piece.Tick(dt)
			}
			Expect(piece.State()).To(Equal(InFlight))
			Expect(piece.IsLibraryControlled()).To(BeTrue())

			piece.Tick(dt)
			Expect(piece.State()).To(Equal(OnField))
			Expect(piece.Pose().Z()).To(BeNumerically("~", 0.05, 1e-9))
			Expect(piece.Velocity().X()).To(BeNumerically("~", 1, 1e-9))
			Expect(piece.Velocity().Z()).To(BeZero())

			Expect(piece.Delete()).To(BeTrue())
			Expect(piece.State()).To(Equal(Limbo))
		})

		It("scores inside a target before checking the floor", func() {
			scored := 0
			piece = newPiece(cylinder(), WithScoreHook(func(*GamePiece, Target) { scored++ }))
			piece.Grant().Launch(geom.NewPose3d(10.25, 10.25, 0.5, 0), mgl64.Vec3{0, 0, -1}, ZeroDynamics())

			for i := 0; i < 100 && piece.State() == InFlight; i++ {
				piece.Tick(dt)
			}
			Expect(piece.State()).To(Equal(Limbo))
			Expect(piece.IsUserControlled()).To(BeTrue())
			Expect(scored).To(Equal(1))
			Expect(world.BodyCount()).To(BeZero())
		})

		It("disappears on landing when it is not placed on the field", func() {
			v := cylinder()
			v.PlaceOnFieldWhenTouchGround = false
			piece = newPiece(v)
			piece.Grant().Launch(geom.NewPose3d(1, 1, 0.1, 0), mgl64.Vec3{0, 0, -1}, ZeroDynamics())

			for i := 0; i < 10; i++ {
				piece.Tick(dt)
			}
			Expect(piece.State()).To(Equal(Limbo))
			Expect(world.BodyCount()).To(BeZero())
		})

		It("falls under gravity", func() {
			piece.Grant().Launch(geom.NewPose3d(0, 0, 1, 0), mgl64.Vec3{1, 0, 0}, Gravity(9.8))
			piece.Tick(dt)
			Expect(piece.Velocity().Z()).To(BeNumerically("~", -9.8*dt, 1e-12))
			Expect(piece.Pose().X()).To(BeNumerically("~", dt, 1e-12))
		})

		It("ticks on-field pieces without changing state", func() {
			piece.Grant().Place(mgl64.Vec2{1, 1})
			piece.Tick(dt)
			Expect(piece.State()).To(Equal(OnField))
		})
	})
})

var _ = Describe("Target", func() {
	t := NewTarget(mgl64.Vec3{10.5, 10, 0.2}, mgl64.Vec3{10, 10.5, 0})

	DescribeTable("Contains",
		func(p mgl64.Vec3, want bool) {
			Expect(t.Contains(p)).To(Equal(want))
		},
		Entry("centre", mgl64.Vec3{10.25, 10.25, 0.1}, true),
		Entry("corner", mgl64.Vec3{10, 10, 0}, true),
		Entry("above", mgl64.Vec3{10.25, 10.25, 0.3}, false),
		Entry("outside", mgl64.Vec3{9.9, 10.25, 0.1}, false),
	)
})

var _ = Describe("ProjectileDynamics", func() {
	It("drags against the direction of travel", func() {
		v := GravityWithDrag(0, 0.1).Calculate(0.01, mgl64.Vec3{10, 0, 0})
		Expect(v.X()).To(BeNumerically("<", 10))
		Expect(v.X()).To(BeNumerically(">", 0))
		Expect(v.Z()).To(BeZero())
	})
})
