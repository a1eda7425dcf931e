package detector

import (
	"fmt"
	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/pose"
	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/convertutil"
	"image"
)

// Engine YOLO-pose 引擎, 实现 pose.Detector
type Engine struct {
	session *ort.Session
	config  Config
}

var _ pose.Detector = (*Engine)(nil)

// NewEngine 初始化姿态引擎
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Model != YOLOv11 && cfg.Model != YOLO26 {
		return nil, fmt.Errorf("不支持的模型类型: %q", cfg.Model)
	}

	oc := new(swing.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, oc); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	// 初始化 ONNX
	if err := oc.New(); err != nil {
		return nil, err
	}

	// 创建 Session
	session, err := oc.OnnxEngine.NewSession(cfg.ModelPath, oc.SessionOptions)
	if err != nil {
		return nil, fmt.Errorf("创建 ONNX 会话失败: %w", err)
	}

	return &Engine{
		session: session,
		config:  cfg,
	}, nil
}

// Destroy 释放相关资源
func (e *Engine) Destroy() {
	if e.session != nil {
		e.session.Destroy()
	}
}

// Predict 执行姿态估计, 返回所有检测到的人体
func (e *Engine) Predict(img image.Image) ([]PoseResult, error) {
	// 预处理
	inputTensor, params, err := preprocess(img, e.config.InputSize)
	if err != nil {
		return nil, fmt.Errorf("预处理失败: %w", err)
	}
	defer inputTensor.Destroy()

	// 推理
	inputValues := map[string]*ort.Value{
		"images": inputTensor,
	}
	outputValues, err := e.session.Run(inputValues)
	if err != nil {
		return nil, fmt.Errorf("推理失败: %w", err)
	}
	outputValue := outputValues["output0"]
	defer outputValue.Destroy()

	data, err := ort.GetTensorData[float32](outputValue)
	if err != nil {
		return nil, fmt.Errorf("获取输出数据失败: %w", err)
	}

	// 后处理
	if e.config.Model == YOLO26 {
		return decodeEnd2End(data, e.config, params), nil
	}
	shape, err := outputValue.GetShape()
	if err != nil {
		return nil, fmt.Errorf("获取输出形状失败: %w", err)
	}
	return decodeAnchors(data, shape, e.config, params)
}

// Detect 检测得分最高的人体, 关键点归一化到 [0,1]
func (e *Engine) Detect(img image.Image) (pose.LandmarkSet, bool, error) {
	results, err := e.Predict(img)
	if err != nil {
		return nil, false, err
	}
	top, ok := best(results)
	if !ok {
		return nil, false, nil
	}
	b := img.Bounds()
	return toLandmarkSet(top.KeyPoints, b.Dx(), b.Dy()), true, nil
}
