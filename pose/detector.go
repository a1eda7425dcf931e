package pose

import "image"

// Detector 人体关键点检测能力
type Detector interface {
	// Detect 检测图片中的人体, 未检测到时 ok 为 false.
	// 返回的坐标归一化到 [0,1], 至少包含 Landmarks 中的 12 个点.
	Detect(img image.Image) (kpts LandmarkSet, ok bool, err error)
}

// DetectorFunc 函数形式的 Detector
type DetectorFunc func(img image.Image) (LandmarkSet, bool, error)

// Detect 实现 Detector
func (f DetectorFunc) Detect(img image.Image) (LandmarkSet, bool, error) {
	return f(img)
}
