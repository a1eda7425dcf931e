// Package annotate 在原始帧上绘制关节、角度与相似度
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/pose"
	"github.com/getcharzp/go-swing/similarity"
	"github.com/up-zero/gotool/imageutil"
)

// Config 绘制参数
type Config struct {
	FontPath      string  // 字体路径, 为空时使用内置字体
	Threshold     float64 // 关节相似度低于该值时用红色绘制 (默认 0.85)
	LineThickness int     // 肢体线宽 (默认 2)
	PointRadius   int     // 关键点半径 (默认 5)
	LabelSize     float64 // 关节标签字号 (默认 14)
	OverallSize   float64 // 左上角总分字号 (默认 28)
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Threshold:     similarity.GoodThreshold,
		LineThickness: 2,
		PointRadius:   5,
		LabelSize:     14,
		OverallSize:   28,
	}
}

var (
	goodColor    = color.RGBA{G: 255, A: 255}
	badColor     = color.RGBA{R: 255, A: 255}
	endColor     = color.RGBA{R: 255, A: 255}
	vertexColor  = color.RGBA{B: 255, A: 255}
	angleColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	scoreColor   = color.RGBA{G: 255, B: 255, A: 255}
	overallColor = color.RGBA{R: 255, G: 255, A: 255}
)

// Annotator 帧标注工具
type Annotator struct {
	config  Config
	label   *swing.TextDrawer // 关节角度与分数
	overall *swing.TextDrawer // 左上角总分
}

// New 创建标注工具, 两种字号各持有一个 TextDrawer
func New(cfg Config) (*Annotator, error) {
	label, err := newSizedDrawer(cfg.FontPath, cfg.LabelSize)
	if err != nil {
		return nil, fmt.Errorf("创建标签字体失败: %w", err)
	}
	overall, err := newSizedDrawer(cfg.FontPath, cfg.OverallSize)
	if err != nil {
		label.Close()
		return nil, fmt.Errorf("创建总分字体失败: %w", err)
	}
	return &Annotator{config: cfg, label: label, overall: overall}, nil
}

func newSizedDrawer(fontPath string, size float64) (*swing.TextDrawer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号必须大于 0: %v", size)
	}
	d, err := swing.NewTextDrawer(fontPath)
	if err != nil {
		return nil, err
	}
	if err := d.SetSize(size); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Close 释放字体资源
func (a *Annotator) Close() {
	a.label.Close()
	a.overall.Close()
}

// Annotate 在帧的副本上绘制标注, 输入帧不会被修改
//
// 只绘制关键点、角度、分数三者齐全的关节, 其余关节静默跳过.
//
// # Params:
//
//	frame: 原始 (未裁剪) 帧
//	kpts: 已重投影到原始帧像素坐标的关键点
//	angles: 关节角
//	scores: 逐关节相似度
//	overall: 整体相似度
func (a *Annotator) Annotate(frame image.Image, kpts pose.LandmarkSet, angles pose.Angles,
	scores map[pose.Joint]float64, overall float64) *image.RGBA {
	dst := image.NewRGBA(frame.Bounds())
	draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Src)

	for _, joint := range pose.Joints {
		angle, okAngle := angles[joint]
		score, okScore := scores[joint]
		if !okAngle || !okScore {
			continue
		}
		t := pose.Triplets[joint]
		pa, okA := kpts[t.A]
		pb, okB := kpts[t.B]
		pc, okC := kpts[t.C]
		if !okA || !okB || !okC {
			continue
		}
		a.drawJoint(dst, toPixel(pa), toPixel(pb), toPixel(pc), angle, score)
	}

	a.overall.DrawText(dst, fmt.Sprintf("Overall Similarity: %.2f", overall), 10, 30, overallColor)
	return dst
}

func (a *Annotator) drawJoint(dst *image.RGBA, pa, pb, pc image.Point, angle, score float64) {
	lineColor := goodColor
	if score < a.config.Threshold {
		lineColor = badColor
	}
	imageutil.DrawThickLine(dst, pa, pb, a.config.LineThickness, lineColor)
	imageutil.DrawThickLine(dst, pb, pc, a.config.LineThickness, lineColor)
	imageutil.DrawFilledCircle(dst, pa, a.config.PointRadius, endColor)
	imageutil.DrawFilledCircle(dst, pb, a.config.PointRadius, vertexColor)
	imageutil.DrawFilledCircle(dst, pc, a.config.PointRadius, endColor)

	// 标签放在顶点右下方, 角度在上, 分数在下
	x, y := pb.X+10, pb.Y+10
	a.label.DrawText(dst, fmt.Sprintf("%d'", int(angle)), x, y-20, angleColor)
	a.label.DrawText(dst, fmt.Sprintf("%.2f", score), x, y, scoreColor)
}

func toPixel(p pose.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
