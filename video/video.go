// Package video 基于 gocv 的视频逐帧读写
package video

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Source 顺序读取视频帧
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// Open 打开视频文件
func Open(path string) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开视频失败: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("打开视频失败: %s", path)
	}
	return &Source{capture: capture, mat: gocv.NewMat()}, nil
}

// FPS 帧率
func (s *Source) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// FrameCount 容器中记录的总帧数
func (s *Source) FrameCount() int {
	return int(s.capture.Get(gocv.VideoCaptureFrameCount))
}

// Read 读取下一帧, 视频结束时 ok 为 false
func (s *Source) Read() (frame image.Image, ok bool, err error) {
	if !s.capture.Read(&s.mat) || s.mat.Empty() {
		return nil, false, nil
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, false, fmt.Errorf("帧转换失败: %w", err)
	}
	return img, true, nil
}

// Close 释放资源
func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// Sink 顺序写入视频帧
type Sink struct {
	writer *gocv.VideoWriter
}

// Create 创建输出视频
//
// # Params:
//
//	path: 输出路径
//	codec: FourCC, 如 mp4v
//	fps: 帧率
//	width, height: 帧尺寸
func Create(path, codec string, fps float64, width, height int) (*Sink, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("创建输出视频失败: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("创建输出视频失败: %s", path)
	}
	return &Sink{writer: writer}, nil
}

// Write 写入一帧
func (s *Sink) Write(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("帧转换失败: %w", err)
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

// Close 刷新并关闭输出
func (s *Sink) Close() error {
	return s.writer.Close()
}
