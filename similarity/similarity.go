// Package similarity 关节角相似度计算与参考姿态匹配
package similarity

import (
	"errors"
	"math"

	"github.com/getcharzp/go-swing/pose"
	"gonum.org/v1/gonum/stat"
)

// MaxDeviation 关节角最大偏差 (度)
const MaxDeviation = 180.0

// ErrEmptyCorpus 参考表没有任何行
var ErrEmptyCorpus = errors.New("reference corpus is empty")

// Score 计算查询姿态与一行参考姿态的相似度
//
// 只比较两者共有且取值有限的关节; 没有这样的关节时返回 (0, {}).
// overall 由平均绝对误差归一化得到, 不是 perJoint 的平均值.
//
//	perJoint[j] = max(0, 1 - |q[j] - r[j]| / 180)
//	overall     = max(0, 1 - mean(|q[j] - r[j]|) / 180)
func Score(query, ref pose.Angles) (overall float64, perJoint map[pose.Joint]float64) {
	perJoint = make(map[pose.Joint]float64)

	diffs := make([]float64, 0, len(query))
	for _, j := range query.Keys() {
		r, ok := ref[j]
		if !ok {
			continue
		}
		diff := math.Abs(query[j] - r)
		if math.IsNaN(diff) || math.IsInf(diff, 0) {
			continue
		}
		diffs = append(diffs, diff)
		perJoint[j] = max(0, 1-diff/MaxDeviation)
	}
	if len(diffs) == 0 {
		return 0, perJoint
	}

	mae := stat.Mean(diffs, nil)
	return max(0, 1-mae/MaxDeviation), perJoint
}

// Match 最佳匹配结果
type Match struct {
	Overall   float64                `json:"overall"`
	PerJoint  map[pose.Joint]float64 `json:"per_joint"`
	Row       int                    `json:"row"` // 参考表中的行号
	Reference pose.Angles            `json:"reference"`
}

// FindBest 线性扫描参考表, 返回 overall 最大的行
//
// 分数相同时保留最先出现的行. 参考表为空时返回 ErrEmptyCorpus.
//
// # Params:
//
//	query: 当前帧的关节角
//	rows: 参考表
func FindBest(query pose.Angles, rows []pose.Angles) (Match, error) {
	if len(rows) == 0 {
		return Match{Row: -1}, ErrEmptyCorpus
	}

	overall, perJoint := Score(query, rows[0])
	best := Match{Overall: overall, PerJoint: perJoint, Row: 0, Reference: rows[0]}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		overall, perJoint := Score(query, row)
		if overall > best.Overall {
			best = Match{
				Overall:   overall,
				PerJoint:  perJoint,
				Row:       i,
				Reference: row,
			}
		}
	}
	return best, nil
}
