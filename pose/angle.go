package pose

import "math"

// Angle 计算以 b 为顶点的夹角 ABC, 单位为度
//
// 结果总是内角, 取值 [0,180]
func Angle(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360 - angle
	}
	return angle
}

// JointAngles 按 Triplets 计算关节角, 缺少关键点的关节被跳过
func JointAngles(kpts LandmarkSet) Angles {
	angles := make(Angles, len(Joints))
	for _, joint := range Joints {
		t := Triplets[joint]
		a, okA := kpts[t.A]
		b, okB := kpts[t.B]
		c, okC := kpts[t.C]
		if !okA || !okB || !okC {
			continue
		}
		angles[joint] = Angle(a, b, c)
	}
	return angles
}
