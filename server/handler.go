package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/getcharzp/go-swing/pipeline"
	"github.com/getcharzp/go-swing/reference"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const videoExt = ".mp4"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

type analyzeRequest struct {
	Shot string `validate:"required,oneof=forehand backhand kickserve"`
}

// AnalyzeHeader 响应头, 携带本次分析的总体相似度
const AnalyzeHeader = "X-Overall-Similarity"

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "IT WORKS!"})
}

func (s *Server) handleAnalyzeShot(shot string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.analyze(c, shot)
	}
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	return s.analyze(c, c.Params("shot"))
}

// analyze 保存上传的视频, 执行分析并以附件形式返回标注视频
func (s *Server) analyze(c *fiber.Ctx, shotParam string) error {
	req := analyzeRequest{Shot: strings.ToLower(shotParam)}
	if err := s.validate.Struct(&req); err != nil {
		return &Error{Code: fiber.StatusBadRequest, Err: fmt.Errorf("%w: %s", reference.ErrUnknownShot, shotParam)}
	}
	shot, err := reference.ParseShot(req.Shot)
	if err != nil {
		return &Error{Code: fiber.StatusBadRequest, Err: err}
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewError(fiber.StatusBadRequest, "No file part")
	}
	if file.Filename == "" {
		return NewError(fiber.StatusBadRequest, "No selected file")
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != videoExt {
		return NewError(fiber.StatusBadRequest, "Invalid file format, only MP4 allowed")
	}

	name := ulid.Make().String() + "_" + secureFilename(file.Filename)
	uploadPath := filepath.Join(s.config.UploadDir, name)
	if err := c.SaveFile(file, uploadPath); err != nil {
		return fmt.Errorf("保存上传文件失败: %w", err)
	}

	outputName := "annotated_" + name
	outputPath := filepath.Join(s.config.ProcessedDir, outputName)
	corpusPath := reference.Path(s.config.ReferenceDir, shot)

	log := s.log.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"shot":       shot,
		"upload":     uploadPath,
	})
	log.Info("开始分析上传视频")

	summary, err := s.runAnalysis(uploadPath, corpusPath, outputPath)
	if err != nil {
		log.WithError(err).Error("视频分析失败")
		return err
	}

	reportPath := outputPath + ".json"
	if err := writeSummary(reportPath, summary); err != nil {
		log.WithError(err).Warn("写入分析报告失败")
	}

	c.Set(AnalyzeHeader, fmt.Sprintf("%.4f", summary.Report.OverallSimilarity))
	return c.Download(outputPath, outputName)
}

func (s *Server) runAnalysis(videoPath, corpusPath, outputPath string) (*pipeline.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.Analyze(videoPath, corpusPath, outputPath)
}

// handleDownload 下载处理结果, 只允许访问输出目录下的文件
func (s *Server) handleDownload(c *fiber.Ctx) error {
	name := c.Params("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return NewError(fiber.StatusBadRequest, "Invalid filename")
	}

	path := filepath.Join(s.config.ProcessedDir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return NewError(fiber.StatusNotFound, "File not found")
	}
	if err != nil {
		return err
	}
	return c.Download(path, name)
}

// secureFilename 去掉目录部分与不安全字符
func secureFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := filepath.Ext(base)
	stem := unsafeChars.ReplaceAllString(strings.TrimSuffix(base, ext), "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = "video"
	}
	return stem + strings.ToLower(ext)
}

func writeSummary(path string, summary *pipeline.Summary) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
