// Package reference 专业动作参考表 (每行一组关节角) 的读写
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/getcharzp/go-swing/pose"
)

var (
	// ErrLoad 参考表不存在或格式错误
	ErrLoad = errors.New("reference: load failed")
	// ErrUnknownShot 不支持的击球类型
	ErrUnknownShot = errors.New("reference: unknown shot type")
)

// Shot 击球类型, 决定使用哪张参考表
type Shot string

const (
	Forehand  Shot = "forehand"
	Backhand  Shot = "backhand"
	Kickserve Shot = "kickserve"
)

// Shots 所有支持的击球类型
var Shots = []Shot{Forehand, Backhand, Kickserve}

// ParseShot 解析击球类型
func ParseShot(s string) (Shot, error) {
	for _, shot := range Shots {
		if string(shot) == strings.ToLower(strings.TrimSpace(s)) {
			return shot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShot, s)
}

// Path 参考表文件路径, 形如 dir/pro_forehand_angles.csv
func Path(dir string, shot Shot) string {
	return filepath.Join(dir, fmt.Sprintf("pro_%s_angles.csv", shot))
}

// Corpus 参考表, 只读
type Corpus struct {
	Columns []string      // 保留的数值列
	Rows    []pose.Angles // 按文件顺序
}

// Len 行数
func (c *Corpus) Len() int {
	return len(c.Rows)
}

// Load 从 CSV 文件加载参考表
//
// 只保留数值列 (每个非空单元格都能解析为数字), 其余列 (如 filename) 被丢弃.
// 空单元格在该行中被省略, 对应关节不参与比较.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read 从 CSV 数据流读取参考表
func Read(r io.Reader) (*Corpus, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrLoad)
	}

	header, body := records[0], records[1:]
	numeric := make([]bool, len(header))
	for i := range header {
		numeric[i] = true
		for _, rec := range body {
			v := strings.TrimSpace(rec[i])
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric[i] = false
				break
			}
		}
	}

	c := &Corpus{Rows: make([]pose.Angles, 0, len(body))}
	for i, name := range header {
		if numeric[i] {
			c.Columns = append(c.Columns, name)
		}
	}
	for _, rec := range body {
		row := make(pose.Angles, len(c.Columns))
		for i, name := range header {
			v := strings.TrimSpace(rec[i])
			if !numeric[i] || v == "" {
				continue
			}
			f, _ := strconv.ParseFloat(v, 64)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			row[pose.Joint(name)] = f
		}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

// Row 构建参考表时的一行
type Row struct {
	Angles   pose.Angles
	Filename string // 来源图片, 写入 filename 列, 加载时被丢弃
}

// WriteCSV 写出参考表: 8 个关节列按固定顺序, 最后是 filename 列
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(pose.Joints)+1)
	for _, j := range pose.Joints {
		header = append(header, string(j))
	}
	header = append(header, "filename")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		rec := make([]string, 0, len(header))
		for _, j := range pose.Joints {
			v, ok := row.Angles[j]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		rec = append(rec, row.Filename)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
