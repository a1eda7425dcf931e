// Package server 挥拍分析的 HTTP 接口
package server

import (
	"fmt"
	"os"
	"sync"

	"github.com/getcharzp/go-swing/pipeline"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Analyzer 分析一段视频并写出标注结果
type Analyzer interface {
	Analyze(videoPath, corpusPath, outputPath string) (*pipeline.Summary, error)
}

// Config 服务参数
type Config struct {
	AppName      string
	ReferenceDir string // pro_<shot>_angles.csv 所在目录
	UploadDir    string
	ProcessedDir string
	BodyLimit    int // 上传大小上限, 字节
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		AppName:      "go-swing",
		ReferenceDir: "ML",
		UploadDir:    "uploads",
		ProcessedDir: "processed",
		BodyLimit:    500 * 1024 * 1024,
	}
}

// Server HTTP 服务
type Server struct {
	app      *fiber.App
	config   Config
	log      logrus.FieldLogger
	analyzer Analyzer
	validate *validator.Validate

	// 分析器持有的推理会话与字体不支持并发
	mu sync.Mutex
}

// New 创建服务并注册路由, 上传与输出目录不存在时自动创建
//
// # Params:
//
//	cfg: 服务参数
//	analyzer: 视频分析器
//	log: 日志器
func New(cfg Config, analyzer Analyzer, log logrus.FieldLogger) (*Server, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}

	s := &Server{
		config:   cfg,
		log:      log,
		analyzer: analyzer,
		validate: validator.New(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:       cfg.AppName,
		BodyLimit:     cfg.BodyLimit,
		StrictRouting: true,
		CaseSensitive: true,
		JSONEncoder:   jsoniter.Marshal,
		JSONDecoder:   jsoniter.Unmarshal,
		ErrorHandler:  errorHandler(log),
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(newRequestID())
	s.app.Use(newRequestLogger(log))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Post("/analyze_shot_forehand", s.handleAnalyzeShot("forehand"))
	s.app.Post("/analyze_shot_backhand", s.handleAnalyzeShot("backhand"))
	s.app.Post("/analyze_shot_kickserve", s.handleAnalyzeShot("kickserve"))
	s.app.Post("/analyze/:shot", s.handleAnalyze)
	s.app.Get("/processed/:filename", s.handleDownload)
}

// App 底层 fiber 应用
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 监听地址, 阻塞直到服务关闭
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown 优雅关闭
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
