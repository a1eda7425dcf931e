// Package refbuild 从职业选手视频构建参考角度表
package refbuild

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/pose"
	"github.com/getcharzp/go-swing/reference"
	"github.com/sirupsen/logrus"
	"github.com/up-zero/gotool/imageutil"
)

// ErrNoFrames 视频中没有可采样的帧
var ErrNoFrames = errors.New("no frames to sample")

const progressTemplate = `{{ string . "prefix" }} {{counters . }} {{bar . }} {{percent . }} {{etime . }}`

// imageExts 参与扫描的图片后缀
var imageExts = []string{".png", ".jpg", ".jpeg"}

// FrameSource 可读取帧并给出总帧数的视频
type FrameSource interface {
	Read() (frame image.Image, ok bool, err error)
	FrameCount() int
}

// Config 构建参数
type Config struct {
	Preprocess pose.PreprocessConfig
	Quality    int // 保存 jpg 的质量
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Preprocess: pose.DefaultPreprocessConfig(),
		Quality:    95,
	}
}

// Builder 参考表构建工具
type Builder struct {
	config       Config
	preprocessor *pose.Preprocessor
	extractor    *pose.Extractor
	log          logrus.FieldLogger
	progress     io.Writer
}

// Option 可选参数
type Option func(*Builder)

// WithLogger 设置日志器
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

// WithProgress 设置进度条输出, nil 表示不显示
func WithProgress(w io.Writer) Option {
	return func(b *Builder) {
		b.progress = w
	}
}

// New 创建构建工具
func New(d pose.Detector, cfg Config, opts ...Option) *Builder {
	b := &Builder{
		config:       cfg,
		preprocessor: pose.NewPreprocessor(d, cfg.Preprocess),
		extractor:    pose.NewExtractor(d),
		log:          swing.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) newBar(prefix string, total int) *pb.ProgressBar {
	w := b.progress
	if w == nil {
		w = io.Discard
	}
	return pb.ProgressBarTemplate(progressTemplate).New(total).
		SetWriter(w).
		Set("prefix", prefix).
		Start()
}

// SelectFrames 从 [0, total) 中无放回随机选出 n 个帧序号并升序返回
//
// n 超过 total 时选择全部帧.
func SelectFrames(total, n int, rng *rand.Rand) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	n = min(n, total)
	picked := rng.Perm(total)[:n]
	slices.Sort(picked)
	return picked
}

// SampleFrames 随机采样视频帧, 裁剪归一化后保存为 frame_<idx>.jpg
//
// 未检测到人体的帧按原样保存.
//
// # Params:
//
//	src: 输入视频
//	outDir: 输出目录
//	n: 采样帧数
//	rng: 随机源
func (b *Builder) SampleFrames(src FrameSource, outDir string, n int, rng *rand.Rand) ([]string, error) {
	total := src.FrameCount()
	if n > total {
		b.log.Warnf("Requested number of frames (%d) exceeds total frames (%d). Processing all frames.", n, total)
	}
	selected := SelectFrames(total, n, rng)
	if len(selected) == 0 {
		return nil, ErrNoFrames
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	bar := b.newBar("sample", len(selected))
	defer bar.Finish()

	saved := make([]string, 0, len(selected))
	for idx := 0; len(saved) < len(selected); idx++ {
		frame, ok, err := src.Read()
		if err != nil {
			return saved, fmt.Errorf("读取第 %d 帧失败: %w", idx, err)
		}
		if !ok {
			b.log.Warn("End of video or no frame received.")
			break
		}
		if idx != selected[len(saved)] {
			continue
		}

		normalized, bounds, err := b.preprocessor.Process(frame)
		if err != nil {
			b.log.WithError(err).WithField("frame", idx).Warn("人体检测失败, 保存原始帧")
		} else if bounds == nil {
			b.log.WithField("frame", idx).Debug("未检测到人体, 保存原始帧")
		}

		path := filepath.Join(outDir, fmt.Sprintf("frame_%d.jpg", idx))
		if err := imageutil.Save(path, normalized, b.config.Quality); err != nil {
			return saved, fmt.Errorf("保存 %s 失败: %w", path, err)
		}
		saved = append(saved, path)
		bar.Increment()
	}

	b.log.Infof("Video processing complete. %d frames processed.", len(saved))
	return saved, nil
}

// ScanDirectory 提取目录下所有图片的关节角度
//
// 无法读取或未检测到完整姿态的图片被跳过, 结果按文件名排序.
func (b *Builder) ScanDirectory(dir string) ([]reference.Row, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, e.Name())
		}
	}

	bar := b.newBar("scan", len(files))
	defer bar.Finish()

	rows := make([]reference.Row, 0, len(files))
	for _, name := range files {
		bar.Increment()
		log := b.log.WithField("file", name)

		img, err := imageutil.Open(filepath.Join(dir, name))
		if err != nil {
			log.WithError(err).Warn("无法读取图片, 跳过")
			continue
		}
		_, angles, ok, err := b.extractor.Extract(img)
		if err != nil {
			log.WithError(err).Warn("关键点提取失败, 跳过")
			continue
		}
		if !ok || len(angles) == 0 {
			log.Debug("未检测到完整姿态, 跳过")
			continue
		}
		rows = append(rows, reference.Row{Angles: angles, Filename: name})
	}
	return rows, nil
}

// BuildCSV 扫描目录并写出参考表, 返回写入的行数
//
// # Params:
//
//	dir: 图片目录
//	csvPath: 输出 CSV 路径
func (b *Builder) BuildCSV(dir, csvPath string) (int, error) {
	rows, err := b.ScanDirectory(dir)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return 0, fmt.Errorf("创建参考表失败: %w", err)
	}
	if err := reference.WriteCSV(f, rows); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("写入参考表失败: %w", err)
	}

	b.log.WithField("rows", len(rows)).Infof("Analysis complete. Results saved to %s", csvPath)
	return len(rows), nil
}
