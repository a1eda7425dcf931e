package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngle(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c Point
		want    float64
	}{
		{"直角", Point{1, 0}, Point{0, 0}, Point{0, 1}, 90},
		{"共线", Point{-1, 0}, Point{0, 0}, Point{1, 0}, 180},
		{"重合", Point{1, 1}, Point{0, 0}, Point{1, 1}, 0},
		{"45度", Point{1, 0}, Point{0, 0}, Point{1, 1}, 45},
		{"超过180取内角", Point{0, -1}, Point{0, 0}, Point{-1, 0.1}, 90 + math.Atan2(0.1, 1)*180/math.Pi},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Angle(tc.a, tc.b, tc.c), 1e-9)
		})
	}
}

func TestAngle_SymmetricAndBounded(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {0.3, 0.9}, {-0.7, 0.2}, {0.5, -0.5}, {-1, -1}, {0.01, 0.99}}
	for _, a := range pts {
		for _, b := range pts {
			for _, c := range pts {
				got := Angle(a, b, c)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 180.0)
				assert.InDelta(t, got, Angle(c, b, a), 1e-9)
			}
		}
	}
}

func TestJointAngles(t *testing.T) {
	kpts := LandmarkSet{
		RightShoulder: {0, 0},
		RightElbow:    {0, 1},
		RightWrist:    {1, 1},
		RightHip:      {0, 2},
	}
	angles := JointAngles(kpts)

	assert.Len(t, angles, 2)
	assert.InDelta(t, 90, angles[RightElbowJoint], 1e-9)
	// hip 与 elbow 在 shoulder 同一侧且共线
	assert.InDelta(t, 0, angles[RightShoulderJoint], 1e-9)
}

func TestTriplets_CoverJoints(t *testing.T) {
	assert.Len(t, Triplets, len(Joints))
	for _, j := range Joints {
		tr, ok := Triplets[j]
		assert.True(t, ok, j)
		assert.Equal(t, string(j), string(tr.B), "顶点应与关节同名")
	}
}

func TestAngles_Keys(t *testing.T) {
	a := Angles{
		LeftHipJoint:    1,
		"wrist_flex":    2,
		RightElbowJoint: 3,
		"ankle_flex":    4,
	}
	assert.Equal(t, []Joint{RightElbowJoint, LeftHipJoint, "ankle_flex", "wrist_flex"}, a.Keys())
}
