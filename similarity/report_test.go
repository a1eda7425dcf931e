package similarity

import (
	"testing"

	"github.com/getcharzp/go-swing/pose"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func record(t *Tracker, perJoint map[pose.Joint]float64, overall float64) {
	t.Record(Match{Overall: overall, PerJoint: perJoint})
}

func TestBuildReport(t *testing.T) {
	tr := NewTracker()
	record(tr, map[pose.Joint]float64{pose.RightElbowJoint: 0.9, pose.LeftKneeJoint: 0.5}, 0.7)
	record(tr, map[pose.Joint]float64{pose.RightElbowJoint: 1.0, pose.LeftKneeJoint: 0.7}, 0.85)

	got := BuildReport(tr)
	want := Report{
		OverallSimilarity: (0.95 + 0.6) / 2,
		JointFeedback: map[pose.Joint]JointFeedback{
			pose.RightElbowJoint: {Status: StatusGood, AverageSimilarity: 0.95, Feedback: goodFeedback},
			pose.LeftKneeJoint:   {Status: StatusNeedsImprovement, AverageSimilarity: 0.6, Feedback: Feedback(pose.LeftKneeJoint)},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("BuildReport() mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 0.775, tr.MeanOverall(), 1e-12)
	assert.Equal(t, 2, tr.Frames())
}

func TestBuildReport_WeightsJointsEqually(t *testing.T) {
	tr := NewTracker()
	// right_elbow 在三帧中出现, left_elbow 只出现一次
	record(tr, map[pose.Joint]float64{pose.RightElbowJoint: 1, pose.LeftElbowJoint: 0}, 0.5)
	record(tr, map[pose.Joint]float64{pose.RightElbowJoint: 1}, 1)
	record(tr, map[pose.Joint]float64{pose.RightElbowJoint: 1}, 1)

	assert.InDelta(t, 0.5, BuildReport(tr).OverallSimilarity, 1e-12)
}

func TestBuildReport_GoodWhenAllAboveThreshold(t *testing.T) {
	tr := NewTracker()
	for _, s := range []float64{0.85, 0.9, 0.99} {
		record(tr, map[pose.Joint]float64{pose.LeftHipJoint: s}, s)
	}
	assert.Equal(t, StatusGood, BuildReport(tr).JointFeedback[pose.LeftHipJoint].Status)
}

func TestBuildReport_OmitsUnscoredJoints(t *testing.T) {
	tr := NewTracker()
	record(tr, map[pose.Joint]float64{pose.RightHipJoint: 0.2}, 0.2)

	r := BuildReport(tr)
	assert.Len(t, r.JointFeedback, 1)
	assert.NotContains(t, r.JointFeedback, pose.LeftHipJoint)
	assert.NotEmpty(t, r.JointFeedback[pose.RightHipJoint].Feedback)
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport(NewTracker())
	assert.Equal(t, 0.0, r.OverallSimilarity)
	assert.Empty(t, r.JointFeedback)
	assert.Equal(t, 0.0, NewTracker().MeanOverall())
}

func TestFeedback(t *testing.T) {
	for _, j := range pose.Joints {
		assert.NotEmpty(t, Feedback(j))
	}
	assert.Contains(t, Feedback(pose.LeftShoulderJoint), "Shoulder rotation")
	assert.Contains(t, Feedback(pose.RightHipJoint), "Hip rotation")
	assert.Contains(t, Feedback("racket_angle"), "General advice")
}
