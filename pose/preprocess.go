package pose

import (
	"fmt"
	"github.com/up-zero/gotool/imageutil"
	"image"
	"image/draw"
)

// PreprocessConfig 裁剪归一化参数
type PreprocessConfig struct {
	Width   int // 输出宽度 (默认 500)
	Height  int // 输出高度 (默认 800)
	Padding int // 关键点包围盒外扩像素 (默认 50)
}

// DefaultPreprocessConfig 默认配置
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Width:   500,
		Height:  800,
		Padding: 50,
	}
}

// CropBounds 裁剪框, 原图像素坐标
type CropBounds struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Rect 转为 image.Rectangle
func (b CropBounds) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Preprocessor 检测人体并裁剪到统一尺寸
type Preprocessor struct {
	detector Detector
	config   PreprocessConfig
}

// NewPreprocessor 创建预处理器
func NewPreprocessor(d Detector, cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{detector: d, config: cfg}
}

// Process 裁剪并缩放帧
//
// 检测成功时返回缩放后的图片与裁剪框; 未检测到人体时原样返回输入帧, bounds 为 nil.
// 调用方必须检查 bounds.
//
// # Params:
//
//	img: 原始帧
func (p *Preprocessor) Process(img image.Image) (normalized image.Image, bounds *CropBounds, err error) {
	kpts, ok, err := p.detector.Detect(img)
	if err != nil {
		return img, nil, fmt.Errorf("关键点检测失败: %w", err)
	}
	if !ok || len(kpts) == 0 {
		return img, nil, nil
	}

	b, ok := p.bounds(img.Bounds(), kpts)
	if !ok {
		return img, nil, nil
	}

	cropped := image.NewRGBA(image.Rect(0, 0, b.MaxX-b.MinX, b.MaxY-b.MinY))
	draw.Draw(cropped, cropped.Bounds(), img, image.Pt(b.MinX, b.MinY), draw.Src)

	return imageutil.Resize(cropped, p.config.Width, p.config.Height), &b, nil
}

// bounds 所有关键点像素坐标的包围盒, 外扩 Padding 并截断到图片范围
func (p *Preprocessor) bounds(r image.Rectangle, kpts LandmarkSet) (CropBounds, bool) {
	w, h := r.Dx(), r.Dy()

	first := true
	var b CropBounds
	for _, pt := range kpts {
		x := r.Min.X + int(pt.X*float64(w))
		y := r.Min.Y + int(pt.Y*float64(h))
		if first {
			b = CropBounds{MinX: x, MaxX: x, MinY: y, MaxY: y}
			first = false
			continue
		}
		b.MinX = min(b.MinX, x)
		b.MaxX = max(b.MaxX, x)
		b.MinY = min(b.MinY, y)
		b.MaxY = max(b.MaxY, y)
	}

	b.MinX = max(b.MinX-p.config.Padding, r.Min.X)
	b.MaxX = min(b.MaxX+p.config.Padding, r.Max.X)
	b.MinY = max(b.MinY-p.config.Padding, r.Min.Y)
	b.MaxY = min(b.MaxY+p.config.Padding, r.Max.Y)

	// 关键点全部落在图片外时裁剪框为空
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return b, false
	}
	return b, true
}

// Reproject 将裁剪图上的归一化坐标映射回原图像素坐标
//
//	x_original = x * (max_x - min_x) + min_x
func Reproject(kpts LandmarkSet, b CropBounds) LandmarkSet {
	out := make(LandmarkSet, len(kpts))
	for name, p := range kpts {
		out[name] = Point{
			X: p.X*float64(b.MaxX-b.MinX) + float64(b.MinX),
			Y: p.Y*float64(b.MaxY-b.MinY) + float64(b.MinY),
		}
	}
	return out
}
