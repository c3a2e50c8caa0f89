package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose2d is a field-relative planar pose.
type Pose2d struct {
	X       float64
	Y       float64
	Heading float64
}

func NewPose2d(x, y, heading float64) Pose2d {
	return Pose2d{X: x, Y: y, Heading: heading}
}

func (p Pose2d) Translation() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// Rotate turns v counter-clockwise by angle.
func Rotate(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	s, c := math.Sincos(angle)
	return mgl64.Vec2{v[0]*c - v[1]*s, v[0]*s + v[1]*c}
}

// Pose3d is a spatial pose; game pieces use it for flight and scoring checks.
type Pose3d struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// NewPose3d builds a pose at (x, y, z) rotated by yaw about +Z.
func NewPose3d(x, y, z, yaw float64) Pose3d {
	return Pose3d{
		Translation: mgl64.Vec3{x, y, z},
		Rotation:    mgl64.QuatRotate(yaw, mgl64.Vec3{0, 0, 1}),
	}
}

// Pose3dFrom2d lifts a planar pose to height z.
func Pose3dFrom2d(p Pose2d, z float64) Pose3d {
	return NewPose3d(p.X, p.Y, z, p.Heading)
}

func (p Pose3d) X() float64 { return p.Translation.X() }
func (p Pose3d) Y() float64 { return p.Translation.Y() }
func (p Pose3d) Z() float64 { return p.Translation.Z() }

// Yaw extracts the rotation about +Z.
func (p Pose3d) Yaw() float64 {
	q := p.Rotation
	x, y, z := q.V.X(), q.V.Y(), q.V.Z()
	return math.Atan2(2*(q.W*z+x*y), 1-2*(y*y+z*z))
}

func (p Pose3d) ToPose2d() Pose2d {
	return Pose2d{X: p.X(), Y: p.Y(), Heading: p.Yaw()}
}

// Twist3d is a change in pose expressed in the pose's own frame.
type Twist3d struct {
	Dx, Dy, Dz float64
	Rx, Ry, Rz float64
}

// Exp applies a twist with the SE(3) exponential map.
func (p Pose3d) Exp(t Twist3d) Pose3d {
	u := mgl64.Vec3{t.Dx, t.Dy, t.Dz}
	w := mgl64.Vec3{t.Rx, t.Ry, t.Rz}
	theta := w.Len()

	var b, c float64
	if theta < 1e-6 {
		b = 0.5 - theta*theta/24
		c = 1.0/6 - theta*theta/120
	} else {
		b = (1 - math.Cos(theta)) / (theta * theta)
		c = (theta - math.Sin(theta)) / (theta * theta * theta)
	}

	wu := w.Cross(u)
	local := u.Add(wu.Mul(b)).Add(w.Cross(wu).Mul(c))

	rot := p.Rotation
	if theta >= 1e-12 {
		rot = rot.Mul(mgl64.QuatRotate(theta, w.Mul(1/theta))).Normalize()
	}
	return Pose3d{
		Translation: p.Translation.Add(p.Rotation.Rotate(local)),
		Rotation:    rot,
	}
}

// TwistFromWorld builds the twist that moves p by a world-frame displacement
// without rotating it.
func (p Pose3d) TwistFromWorld(d mgl64.Vec3) Twist3d {
	local := p.Rotation.Inverse().Rotate(d)
	return Twist3d{Dx: local.X(), Dy: local.Y(), Dz: local.Z()}
}
