package pose

import (
	"fmt"
	"image"
)

// Extractor 关键点与关节角提取
type Extractor struct {
	detector Detector
}

// NewExtractor 创建提取器
func NewExtractor(d Detector) *Extractor {
	return &Extractor{detector: d}
}

// Extract 检测人体并计算 8 个关节角
//
// 未检测到人体或缺少命名关键点时 ok 为 false, kpts 与 angles 均为 nil.
// kpts 为检测器坐标系下的归一化坐标, 用于后续重投影与绘制.
//
// # Params:
//
//	img: 裁剪归一化后的帧, 或构建参考表时的原始图片
func (e *Extractor) Extract(img image.Image) (kpts LandmarkSet, angles Angles, ok bool, err error) {
	detected, ok, err := e.detector.Detect(img)
	if err != nil {
		return nil, nil, false, fmt.Errorf("关键点检测失败: %w", err)
	}
	if !ok {
		return nil, nil, false, nil
	}

	kpts, ok = detected.Named()
	if !ok {
		return nil, nil, false, nil
	}
	return kpts, JointAngles(kpts), true, nil
}
