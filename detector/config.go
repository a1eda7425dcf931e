package detector

import (
	"github.com/getcharzp/go-swing"
	"image"
)

// Model 姿态模型类型
type Model string

const (
	// YOLOv11 输出 [1, 56, 8400], 需要 NMS
	YOLOv11 Model = "yolov11"
	// YOLO26 端到端输出 [1, 300, 57]
	YOLO26 Model = "yolo26"
)

// Config 引擎的初始化参数
type Config struct {
	Model              Model  // 模型类型 (默认 yolov11)
	ModelPath          string // ONNX 模型路径
	OnnxRuntimeLibPath string // ONNX Runtime 动态库路径

	// 推理参数
	ConfThreshold float32 // 置信度阈值 (默认 0.45)
	IOUThreshold  float32 // NMS IOU 阈值 (默认 0.5), 仅 yolov11 使用

	// 模型参数
	InputSize    int // 默认 640
	NumClasses   int // 默认 1
	NumKeyPoints int // 默认 17

	// 可选参数
	UseCuda    bool // (可选) 是否启用 CUDA
	NumThreads int  // (可选) ONNX 线程数, 默认由CPU核心数决定
}

// DefaultConfig YOLOv11-pose 的默认配置
func DefaultConfig() Config {
	return Config{
		Model:              YOLOv11,
		ModelPath:          "./yolov11_weights/yolo11m-pose.onnx",
		OnnxRuntimeLibPath: swing.DefaultLibraryPath(),
		ConfThreshold:      0.45,
		IOUThreshold:       0.50,
		InputSize:          640,
		NumClasses:         1,
		NumKeyPoints:       17,
	}
}

// DefaultYOLO26Config YOLO26-pose 的默认配置
func DefaultYOLO26Config() Config {
	cfg := DefaultConfig()
	cfg.Model = YOLO26
	cfg.ModelPath = "./yolo26_weights/yolo26m-pose.onnx"
	return cfg
}

// imageParams 图片尺寸信息
type imageParams struct {
	origW, origH int
	scale        float32
}

// 候选结果
type candidate struct {
	origBox      image.Rectangle // 原始图片的检测框
	score        float32
	rawKeyPoints []float32
}

// KeyPoint 单个关键点
type KeyPoint struct {
	X, Y  int     // 原图坐标
	Score float32 // 可见性/置信度
}

// PoseResult 姿态估计结果
type PoseResult struct {
	Score     float32
	Box       image.Rectangle
	KeyPoints []KeyPoint // 关键点列表, COCO 顺序
}
