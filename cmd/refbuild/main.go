// refbuild 构建职业选手参考角度表
//
//	refbuild -mode sample -video kickserve.mp4 -out data/kickserve -n 300
//	refbuild -mode scan -dir data/kickserve -csv ML/pro_kickserve_angles.csv
package main

import (
	"flag"
	"math/rand/v2"
	"os"
	"time"

	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/detector"
	"github.com/getcharzp/go-swing/refbuild"
	"github.com/getcharzp/go-swing/video"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		mode      = flag.String("mode", "scan", "sample: 从视频随机采样帧; scan: 提取目录中图片的角度并写出 CSV")
		videoPath = flag.String("video", "", "输入视频 (sample)")
		outDir    = flag.String("out", "", "帧输出目录 (sample)")
		n         = flag.Int("n", 300, "采样帧数 (sample)")
		seed      = flag.Uint64("seed", 0, "随机种子, 0 表示使用当前时间 (sample)")
		dir       = flag.String("dir", "", "图片目录 (scan)")
		csvPath   = flag.String("csv", "", "输出 CSV (scan)")
		model     = flag.String("model", string(detector.YOLOv11), "姿态模型: yolov11 或 yolo26")
		modelPath = flag.String("model-path", "", "ONNX 模型路径")
		libPath   = flag.String("ort-lib", "", "ONNX Runtime 动态库路径")
		logLevel  = flag.String("log-level", "info", "日志级别")
	)
	flag.Parse()

	logger := swing.NewLogger(swing.LogConfig{Level: *logLevel, NoFile: true})

	cfg := detector.DefaultConfig()
	if detector.Model(*model) == detector.YOLO26 {
		cfg = detector.DefaultYOLO26Config()
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *libPath != "" {
		cfg.OnnxRuntimeLibPath = *libPath
	}

	engine, err := detector.NewEngine(cfg)
	if err != nil {
		logger.Fatalf("创建姿态检测引擎失败: %v", err)
	}
	defer engine.Destroy()

	builder := refbuild.New(engine, refbuild.DefaultConfig(),
		refbuild.WithLogger(logger),
		refbuild.WithProgress(os.Stderr),
	)

	switch *mode {
	case "sample":
		if *videoPath == "" || *outDir == "" {
			logger.Fatal("sample 模式需要 -video 和 -out")
		}
		sample(logger, builder, *videoPath, *outDir, *n, *seed)
	case "scan":
		if *dir == "" || *csvPath == "" {
			logger.Fatal("scan 模式需要 -dir 和 -csv")
		}
		if _, err := builder.BuildCSV(*dir, *csvPath); err != nil {
			logger.Fatalf("构建参考表失败: %v", err)
		}
	default:
		logger.Fatalf("未知模式: %s", *mode)
	}
}

func sample(logger *logrus.Logger, builder *refbuild.Builder, videoPath, outDir string, n int, seed uint64) {
	src, err := video.Open(videoPath)
	if err != nil {
		logger.Fatalf("Couldn't open video %s: %v", videoPath, err)
	}
	defer src.Close()

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	if _, err := builder.SampleFrames(src, outDir, n, rng); err != nil {
		logger.Errorf("采样失败: %v", err)
	}
}
