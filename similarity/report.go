package similarity

import (
	"strings"

	"github.com/getcharzp/go-swing/pose"
	"gonum.org/v1/gonum/stat"
)

// GoodThreshold 关节平均相似度达到该值视为 Good, 绘制时也用它区分颜色
const GoodThreshold = 0.85

// Status 关节评价
type Status string

const (
	StatusGood             Status = "Good"
	StatusNeedsImprovement Status = "Needs Improvement"
)

const goodFeedback = "Good performance on this joint."

// Tracker 单次分析内逐帧累积的相似度
type Tracker struct {
	joints  []pose.Joint
	scores  map[pose.Joint][]float64
	overall []float64
}

// NewTracker 创建累积器, 预置 8 个固定关节
func NewTracker() *Tracker {
	t := &Tracker{scores: make(map[pose.Joint][]float64, len(pose.Joints))}
	for _, j := range pose.Joints {
		t.joints = append(t.joints, j)
		t.scores[j] = nil
	}
	return t
}

// Record 记录一帧的匹配结果
func (t *Tracker) Record(m Match) {
	t.overall = append(t.overall, m.Overall)
	for _, j := range pose.Angles(m.PerJoint).Keys() {
		if _, ok := t.scores[j]; !ok {
			t.joints = append(t.joints, j)
		}
		t.scores[j] = append(t.scores[j], m.PerJoint[j])
	}
}

// Scores 某个关节按帧顺序记录的分数
func (t *Tracker) Scores(j pose.Joint) []float64 {
	return t.scores[j]
}

// Frames 已记录的帧数
func (t *Tracker) Frames() int {
	return len(t.overall)
}

// MeanOverall 逐帧 overall 的平均值, 没有记录时为 0
func (t *Tracker) MeanOverall() float64 {
	if len(t.overall) == 0 {
		return 0
	}
	return stat.Mean(t.overall, nil)
}

// JointFeedback 单个关节的评价
type JointFeedback struct {
	Status            Status  `json:"status"`
	AverageSimilarity float64 `json:"average_similarity"`
	Feedback          string  `json:"feedback"`
}

// Report 整段视频的表现报告
type Report struct {
	// 各关节平均值的平均值, 每个关节权重相同
	OverallSimilarity float64                      `json:"overall_similarity"`
	JointFeedback     map[pose.Joint]JointFeedback `json:"joint_feedback"`
}

// BuildReport 根据累积的分数生成报告
//
// 没有任何分数的关节不会出现在报告中.
func BuildReport(t *Tracker) Report {
	report := Report{JointFeedback: make(map[pose.Joint]JointFeedback)}

	var means []float64
	for _, j := range t.joints {
		scores := t.scores[j]
		if len(scores) == 0 {
			continue
		}
		avg := stat.Mean(scores, nil)
		means = append(means, avg)

		if avg < GoodThreshold {
			report.JointFeedback[j] = JointFeedback{
				Status:            StatusNeedsImprovement,
				AverageSimilarity: avg,
				Feedback:          Feedback(j),
			}
			continue
		}
		report.JointFeedback[j] = JointFeedback{
			Status:            StatusGood,
			AverageSimilarity: avg,
			Feedback:          goodFeedback,
		}
	}
	if len(means) > 0 {
		report.OverallSimilarity = stat.Mean(means, nil)
	}
	return report
}

var feedbackByKeyword = []struct {
	keyword string
	text    string
}{
	{"elbow", "Focus on your elbow position to match the professional swing."},
	{"knee", "Pay attention to your knee bend. Proper knee bend helps with balance and generates more power during your shots."},
	{"shoulder", "Shoulder rotation is key for generating power. Ensure full shoulder rotation to create more force in your swings."},
	{"hip", "Hip rotation is essential to transferring energy from your legs to your racket. Rotate your hips with your shoulders for fluid motion."},
}

// Feedback 需要改进的关节对应的建议, 按关节名中的关键字匹配
func Feedback(j pose.Joint) string {
	for _, f := range feedbackByKeyword {
		if strings.Contains(string(j), f.keyword) {
			return f.text
		}
	}
	return "General advice: Focus on proper form and positioning to improve your technique."
}
