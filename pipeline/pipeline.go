// Package pipeline 逐帧分析挥拍视频并输出标注视频与表现报告
package pipeline

import (
	"errors"
	"fmt"
	"image"

	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/annotate"
	"github.com/getcharzp/go-swing/pose"
	"github.com/getcharzp/go-swing/reference"
	"github.com/getcharzp/go-swing/similarity"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSourceUnavailable 视频或参考表无法打开
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrOutputWrite 输出视频无法创建或写入
	ErrOutputWrite = errors.New("output write failed")
	// ErrEmptyVideo 视频中没有任何帧
	ErrEmptyVideo = errors.New("video has no frames")
)

// Source 视频帧来源
type Source interface {
	Read() (frame image.Image, ok bool, err error)
	FPS() float64
	Close() error
}

// Sink 视频帧输出
type Sink interface {
	Write(frame image.Image) error
	Close() error
}

// SourceOpener 打开输入视频
type SourceOpener func(path string) (Source, error)

// SinkCreator 创建输出视频
type SinkCreator func(path, codec string, fps float64, width, height int) (Sink, error)

// Config 流水线参数
type Config struct {
	Codec      string // 输出视频 FourCC (默认 mp4v)
	Preprocess pose.PreprocessConfig
	Annotate   annotate.Config
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Codec:      "mp4v",
		Preprocess: pose.DefaultPreprocessConfig(),
		Annotate:   annotate.DefaultConfig(),
	}
}

// State 流水线阶段
type State string

const (
	StateInit     State = "init"
	StateLoop     State = "per_frame_loop"
	StateFinalize State = "finalize"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Summary 一次分析的结果
type Summary struct {
	OutputPath   string  `json:"output_path"`
	FPS          float64 `json:"fps"`
	Frames       int     `json:"frames"`
	ScoredFrames int     `json:"scored_frames"`
	// 已评分帧的最佳匹配 overall 的平均值
	MeanFrameSimilarity float64           `json:"mean_frame_similarity"`
	Report              similarity.Report `json:"report"`
}

// Pipeline 单线程逐帧分析流水线
//
// 同一个 Pipeline 不能被并发调用.
type Pipeline struct {
	config       Config
	log          logrus.FieldLogger
	preprocessor *pose.Preprocessor
	extractor    *pose.Extractor
	annotator    *annotate.Annotator
	openSource   SourceOpener
	createSink   SinkCreator
}

// Option 可选参数
type Option func(*Pipeline)

// WithLogger 设置日志器
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithVideoIO 设置视频读写实现
func WithVideoIO(open SourceOpener, create SinkCreator) Option {
	return func(p *Pipeline) {
		p.openSource = open
		p.createSink = create
	}
}

// New 创建流水线
//
// # Params:
//
//	d: 人体关键点检测器
//	cfg: 流水线参数
func New(d pose.Detector, cfg Config, opts ...Option) (*Pipeline, error) {
	annotator, err := annotate.New(cfg.Annotate)
	if err != nil {
		return nil, fmt.Errorf("创建标注工具失败: %w", err)
	}
	p := &Pipeline{
		config:       cfg,
		log:          swing.NopLogger(),
		preprocessor: pose.NewPreprocessor(d, cfg.Preprocess),
		extractor:    pose.NewExtractor(d),
		annotator:    annotator,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close 释放资源
func (p *Pipeline) Close() {
	p.annotator.Close()
}

// Analyze 分析视频文件并写出标注视频
//
// 视频或参考表不可用时直接失败, 不产生任何输出.
//
// # Params:
//
//	videoPath: 输入视频
//	corpusPath: 参考表 CSV
//	outputPath: 输出视频
func (p *Pipeline) Analyze(videoPath, corpusPath, outputPath string) (*Summary, error) {
	if p.openSource == nil || p.createSink == nil {
		return nil, fmt.Errorf("%w: video io is not configured", ErrSourceUnavailable)
	}
	log := p.log.WithFields(logrus.Fields{"video": videoPath, "reference": corpusPath})
	log.WithField("state", StateInit).Info("开始分析")

	src, err := p.openSource(videoPath)
	if err != nil {
		log.WithField("state", StateFailed).WithError(err).Error("无法打开视频")
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer src.Close()

	corpus, err := reference.Load(corpusPath)
	if err != nil {
		log.WithField("state", StateFailed).WithError(err).Error("无法加载参考表")
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	sinks := func(fps float64, width, height int) (Sink, error) {
		return p.createSink(outputPath, p.config.Codec, fps, width, height)
	}
	summary, err := p.Run(src, corpus, sinks)
	if err != nil {
		return nil, err
	}
	summary.OutputPath = outputPath
	return summary, nil
}

// Run 对已打开的视频执行逐帧分析, src 由调用方关闭
//
// 输出在读到第一帧时按其尺寸创建, 帧按顺序即时写出.
// 未检测到人体的帧原样写出且不计入统计.
func (p *Pipeline) Run(src Source, corpus *reference.Corpus, newSink func(fps float64, width, height int) (Sink, error)) (summary *Summary, err error) {
	if corpus == nil || corpus.Len() == 0 {
		p.log.WithField("state", StateFailed).Error("参考表为空")
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, similarity.ErrEmptyCorpus)
	}

	fps := src.FPS()
	tracker := similarity.NewTracker()
	summary = &Summary{FPS: fps}

	var sink Sink
	defer func() {
		if sink == nil {
			return
		}
		if cerr := sink.Close(); cerr != nil && err == nil {
			summary, err = nil, fmt.Errorf("%w: %w", ErrOutputWrite, cerr)
		}
	}()
	write := func(frame image.Image) error {
		if sink == nil {
			b := frame.Bounds()
			s, err := newSink(fps, b.Dx(), b.Dy())
			if err != nil {
				return fmt.Errorf("%w: %w", ErrOutputWrite, err)
			}
			sink = s
		}
		if err := sink.Write(frame); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		return nil
	}

	p.log.WithFields(logrus.Fields{"state": StateLoop, "fps": fps, "rows": corpus.Len()}).Debug("进入逐帧处理")
	for {
		frame, ok, err := src.Read()
		if err != nil {
			p.log.WithField("state", StateFailed).WithError(err).Error("读取视频帧失败")
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if !ok {
			break
		}

		idx := summary.Frames
		summary.Frames++

		out, match, scored := p.processFrame(idx, frame, corpus)
		if err := write(out); err != nil {
			p.log.WithField("state", StateFailed).WithError(err).Error("写入输出视频失败")
			return nil, err
		}
		if scored {
			tracker.Record(match)
		}
	}

	if summary.Frames == 0 {
		p.log.WithField("state", StateFailed).Error("视频中没有任何帧")
		return nil, ErrEmptyVideo
	}

	p.log.WithField("state", StateFinalize).Debug("汇总统计")
	summary.ScoredFrames = tracker.Frames()
	summary.MeanFrameSimilarity = tracker.MeanOverall()
	summary.Report = similarity.BuildReport(tracker)

	p.log.WithFields(logrus.Fields{
		"state":         StateDone,
		"frames":        summary.Frames,
		"scored_frames": summary.ScoredFrames,
		"similarity":    summary.Report.OverallSimilarity,
	}).Info("分析完成")
	return summary, nil
}

// processFrame 处理单帧, 检测失败时返回原始帧且 scored 为 false
func (p *Pipeline) processFrame(idx int, frame image.Image, corpus *reference.Corpus) (out image.Image, match similarity.Match, scored bool) {
	log := p.log.WithField("frame", idx)

	normalized, bounds, err := p.preprocessor.Process(frame)
	if err != nil {
		log.WithError(err).Warn("人体检测失败, 原样输出")
	}
	if bounds == nil {
		log.Warnf("Could not detect player for frame %d", idx)
		return frame, match, false
	}

	kpts, angles, ok, err := p.extractor.Extract(normalized)
	if err != nil {
		log.WithError(err).Warn("关键点提取失败, 原样输出")
	}
	if !ok {
		log.Warnf("Could not extract angles for frame %d", idx)
		return frame, match, false
	}

	match, err = similarity.FindBest(angles, corpus.Rows)
	if err != nil {
		log.WithError(err).Warn("参考姿态匹配失败, 原样输出")
		return frame, match, false
	}

	scaled := pose.Reproject(kpts, *bounds)
	out = p.annotator.Annotate(frame, scaled, angles, match.PerJoint, match.Overall)

	log.WithFields(logrus.Fields{"similarity": match.Overall, "row": match.Row}).
		Infof("Frame %d: Overall Similarity Score = %.2f", idx, match.Overall)
	return out, match, true
}
