package pose

import "slices"

// Landmark 人体关键点名称
type Landmark string

const (
	RightShoulder Landmark = "right_shoulder"
	RightElbow    Landmark = "right_elbow"
	RightWrist    Landmark = "right_wrist"
	RightHip      Landmark = "right_hip"
	RightKnee     Landmark = "right_knee"
	RightAnkle    Landmark = "right_ankle"
	LeftShoulder  Landmark = "left_shoulder"
	LeftElbow     Landmark = "left_elbow"
	LeftWrist     Landmark = "left_wrist"
	LeftHip       Landmark = "left_hip"
	LeftKnee      Landmark = "left_knee"
	LeftAnkle     Landmark = "left_ankle"
)

// Landmarks 计算关节角所需的 12 个关键点
var Landmarks = []Landmark{
	RightShoulder, RightElbow, RightWrist, RightHip, RightKnee, RightAnkle,
	LeftShoulder, LeftElbow, LeftWrist, LeftHip, LeftKnee, LeftAnkle,
}

// Point 二维坐标
type Point struct {
	X, Y float64
}

// LandmarkSet 关键点集合
//
// 由 Detector 产出时坐标归一化到 [0,1] (相对检测所用的图片),
// 经 Reproject 后为原图像素坐标. 检测器可以返回 12 个之外的点 (如面部),
// 这些点只参与裁剪框的计算.
type LandmarkSet map[Landmark]Point

// Named 只保留 12 个命名关键点, 缺少任意一个时返回 false
func (s LandmarkSet) Named() (LandmarkSet, bool) {
	named := make(LandmarkSet, len(Landmarks))
	for _, name := range Landmarks {
		p, ok := s[name]
		if !ok {
			return nil, false
		}
		named[name] = p
	}
	return named, true
}

// Joint 关节名称
type Joint string

const (
	RightElbowJoint    Joint = "right_elbow"
	LeftElbowJoint     Joint = "left_elbow"
	RightShoulderJoint Joint = "right_shoulder"
	LeftShoulderJoint  Joint = "left_shoulder"
	RightKneeJoint     Joint = "right_knee"
	LeftKneeJoint      Joint = "left_knee"
	RightHipJoint      Joint = "right_hip"
	LeftHipJoint       Joint = "left_hip"
)

// Joints 固定的 8 个关节, 顺序即参考表的列顺序
var Joints = []Joint{
	RightElbowJoint, LeftElbowJoint,
	RightShoulderJoint, LeftShoulderJoint,
	RightKneeJoint, LeftKneeJoint,
	RightHipJoint, LeftHipJoint,
}

// Triplet 定义关节角的三个点, B 为顶点
type Triplet struct {
	A, B, C Landmark
}

// Triplets 关节到肢体三元组的映射
//
//	elbow    = (shoulder, elbow, wrist)
//	shoulder = (hip, shoulder, elbow)
//	knee     = (hip, knee, ankle)
//	hip      = (shoulder, hip, knee)
var Triplets = map[Joint]Triplet{
	RightElbowJoint:    {RightShoulder, RightElbow, RightWrist},
	LeftElbowJoint:     {LeftShoulder, LeftElbow, LeftWrist},
	RightShoulderJoint: {RightHip, RightShoulder, RightElbow},
	LeftShoulderJoint:  {LeftHip, LeftShoulder, LeftElbow},
	RightKneeJoint:     {RightHip, RightKnee, RightAnkle},
	LeftKneeJoint:      {LeftHip, LeftKnee, LeftAnkle},
	RightHipJoint:      {RightShoulder, RightHip, RightKnee},
	LeftHipJoint:       {LeftShoulder, LeftHip, LeftKnee},
}

// Angles 关节角集合, 单位为度, 取值 [0,180]
type Angles map[Joint]float64

// Keys 按固定关节顺序返回已存在的关节, 其余名称按字典序排在后面
func (a Angles) Keys() []Joint {
	keys := make([]Joint, 0, len(a))
	fixed := make(map[Joint]bool, len(Joints))
	for _, j := range Joints {
		fixed[j] = true
		if _, ok := a[j]; ok {
			keys = append(keys, j)
		}
	}
	var extra []Joint
	for j := range a {
		if !fixed[j] {
			extra = append(extra, j)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}
