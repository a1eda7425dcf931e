// swingd 挥拍分析 HTTP 服务
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/getcharzp/go-swing"
	"github.com/getcharzp/go-swing/detector"
	"github.com/getcharzp/go-swing/pipeline"
	"github.com/getcharzp/go-swing/server"
	"github.com/getcharzp/go-swing/video"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("未加载 .env 文件: %v", err)
	}

	logger := swing.NewLogger(swing.LogConfig{
		Level: getenv("LOG_LEVEL", "info"),
		Dir:   os.Getenv("LOG_DIR"),
	})

	engine, err := detector.NewEngine(detectorConfig())
	if err != nil {
		logger.Fatalf("创建姿态检测引擎失败: %v", err)
	}
	defer engine.Destroy()

	cfg := pipeline.DefaultConfig()
	cfg.Annotate.FontPath = os.Getenv("SWING_FONT_PATH")
	p, err := pipeline.New(engine, cfg,
		pipeline.WithLogger(logger),
		pipeline.WithVideoIO(openSource, createSink),
	)
	if err != nil {
		logger.Fatalf("创建分析流水线失败: %v", err)
	}
	defer p.Close()

	srvCfg := server.DefaultConfig()
	srvCfg.ReferenceDir = getenv("SWING_REFERENCE_DIR", srvCfg.ReferenceDir)
	srvCfg.UploadDir = getenv("SWING_UPLOAD_DIR", srvCfg.UploadDir)
	srvCfg.ProcessedDir = getenv("SWING_PROCESSED_DIR", srvCfg.ProcessedDir)
	srv, err := server.New(srvCfg, p, logger)
	if err != nil {
		logger.Fatalf("创建 HTTP 服务失败: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	addr := ":" + getenv("APP_PORT", "5001")
	go func() {
		if err := srv.Listen(addr); err != nil {
			logger.Fatalf("启动 HTTP 服务失败: %v", err)
		}
	}()
	logger.WithField("addr", addr).Info("服务已启动")

	<-sigChan
	logger.Info("正在关闭服务...")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("关闭服务失败")
	}
}

func detectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	if detector.Model(os.Getenv("SWING_MODEL")) == detector.YOLO26 {
		cfg = detector.DefaultYOLO26Config()
	}
	cfg.ModelPath = getenv("SWING_MODEL_PATH", cfg.ModelPath)
	cfg.OnnxRuntimeLibPath = getenv("ONNXRUNTIME_LIB", cfg.OnnxRuntimeLibPath)
	cfg.UseCuda = os.Getenv("SWING_USE_CUDA") == "true"
	return cfg
}

func openSource(path string) (pipeline.Source, error) {
	src, err := video.Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func createSink(path, codec string, fps float64, width, height int) (pipeline.Sink, error) {
	sink, err := video.Create(path, codec, fps, width, height)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
