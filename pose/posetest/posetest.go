// Package posetest 提供不依赖模型的 pose.Detector 实现, 供测试使用
package posetest

import (
	"errors"
	"image"

	"github.com/getcharzp/go-swing/pose"
)

// ErrInference 模拟推理失败
var ErrInference = errors.New("posetest: inference failed")

// Detector 按调用顺序返回预设结果的检测器
//
// Results 中的 nil 表示该次调用未检测到人体. 调用次数超过 Results 长度时
// 重复最后一个结果.
type Detector struct {
	Results []pose.LandmarkSet
	Fail    bool
	Calls   int
}

// Detect 实现 pose.Detector
func (d *Detector) Detect(image.Image) (pose.LandmarkSet, bool, error) {
	d.Calls++
	if d.Fail {
		return nil, false, ErrInference
	}
	if len(d.Results) == 0 {
		return nil, false, nil
	}
	idx := min(d.Calls-1, len(d.Results)-1)
	kpts := d.Results[idx]
	if kpts == nil {
		return nil, false, nil
	}
	return kpts, true, nil
}

// Always 每次都返回同一组关键点
func Always(kpts pose.LandmarkSet) *Detector {
	return &Detector{Results: []pose.LandmarkSet{kpts}}
}

// Never 永远检测不到人体
func Never() *Detector {
	return &Detector{}
}

// Standing 一组直立、双臂下垂的归一化关键点
//
// 肘、膝对应的三点共线, 角度为 180.
func Standing() pose.LandmarkSet {
	return pose.LandmarkSet{
		pose.RightShoulder: {X: 0.40, Y: 0.20},
		pose.RightElbow:    {X: 0.40, Y: 0.35},
		pose.RightWrist:    {X: 0.40, Y: 0.50},
		pose.RightHip:      {X: 0.45, Y: 0.55},
		pose.RightKnee:     {X: 0.45, Y: 0.70},
		pose.RightAnkle:    {X: 0.45, Y: 0.85},
		pose.LeftShoulder:  {X: 0.60, Y: 0.20},
		pose.LeftElbow:     {X: 0.60, Y: 0.35},
		pose.LeftWrist:     {X: 0.60, Y: 0.50},
		pose.LeftHip:       {X: 0.55, Y: 0.55},
		pose.LeftKnee:      {X: 0.55, Y: 0.70},
		pose.LeftAnkle:     {X: 0.55, Y: 0.85},
	}
}
