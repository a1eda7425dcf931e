package pipeline

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/getcharzp/go-swing/pose"
	"github.com/getcharzp/go-swing/pose/posetest"
	"github.com/getcharzp/go-swing/reference"
	"github.com/getcharzp/go-swing/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	frames []image.Image
	fps    float64
	next   int
	err    error
	closed bool
}

func (s *fakeSource) Read() (image.Image, bool, error) {
	if s.err != nil && s.next == len(s.frames) {
		return nil, false, s.err
	}
	if s.next >= len(s.frames) {
		return nil, false, nil
	}
	f := s.frames[s.next]
	s.next++
	return f, true, nil
}

func (s *fakeSource) FPS() float64 { return s.fps }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	frames   []image.Image
	closed   bool
	writeErr error
}

func (s *fakeSink) Write(frame image.Image) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

type sinkCall struct {
	fps           float64
	width, height int
}

func sinkFactory(sink *fakeSink, calls *[]sinkCall) func(float64, int, int) (Sink, error) {
	return func(fps float64, w, h int) (Sink, error) {
		*calls = append(*calls, sinkCall{fps, w, h})
		return sink, nil
	}
}

// personFrame 左上角像素为白色时视为有人
func personFrame(present bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	if present {
		img.Set(0, 0, color.White)
	}
	return img
}

// markerDetector 原始帧按左上角像素判断是否有人, 裁剪后的帧总能检测到
func markerDetector() pose.Detector {
	return pose.DetectorFunc(func(img image.Image) (pose.LandmarkSet, bool, error) {
		if img.Bounds().Dx() == 320 {
			if r, _, _, _ := img.At(0, 0).RGBA(); r == 0 {
				return nil, false, nil
			}
		}
		return posetest.Standing(), true, nil
	})
}

func standingCorpus() *reference.Corpus {
	return &reference.Corpus{Rows: []pose.Angles{
		{pose.RightElbowJoint: 10, pose.LeftElbowJoint: 10},
		pose.JointAngles(posetest.Standing()),
	}}
}

func newPipeline(t *testing.T, d pose.Detector, opts ...Option) *Pipeline {
	p, err := New(d, DefaultConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestRun(t *testing.T) {
	frames := []image.Image{personFrame(true), personFrame(false), personFrame(true)}
	src := &fakeSource{frames: frames, fps: 30}
	sink := &fakeSink{}
	var calls []sinkCall

	summary, err := newPipeline(t, markerDetector()).Run(src, standingCorpus(), sinkFactory(sink, &calls))
	require.NoError(t, err)

	assert.Equal(t, []sinkCall{{30, 320, 240}}, calls)
	assert.True(t, sink.closed)
	require.Len(t, sink.frames, 3)
	assert.NotSame(t, frames[0], sink.frames[0])
	assert.Equal(t, frames[0].Bounds(), sink.frames[0].Bounds())
	assert.Same(t, frames[1], sink.frames[1], "未检测到人体的帧应原样写出")
	assert.Equal(t, personFrame(false).Pix, sink.frames[1].(*image.RGBA).Pix)

	assert.Equal(t, 3, summary.Frames)
	assert.Equal(t, 2, summary.ScoredFrames)
	assert.Equal(t, 30.0, summary.FPS)
	assert.Equal(t, 1.0, summary.MeanFrameSimilarity)
	assert.Equal(t, 1.0, summary.Report.OverallSimilarity)
	require.Len(t, summary.Report.JointFeedback, len(pose.Joints))
	for _, j := range pose.Joints {
		assert.Equal(t, similarity.StatusGood, summary.Report.JointFeedback[j].Status)
	}
}

func TestRun_NoDetectionAnywhere(t *testing.T) {
	frames := []image.Image{personFrame(false), personFrame(false)}
	sink := &fakeSink{}
	var calls []sinkCall

	summary, err := newPipeline(t, posetest.Never()).Run(&fakeSource{frames: frames, fps: 25}, standingCorpus(), sinkFactory(sink, &calls))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ScoredFrames)
	assert.Empty(t, summary.Report.JointFeedback)
	require.Len(t, sink.frames, 2)
	assert.Same(t, frames[0], sink.frames[0])
	assert.Same(t, frames[1], sink.frames[1])
}

func TestRun_DetectorErrorIsRecoverable(t *testing.T) {
	frames := []image.Image{personFrame(true)}
	sink := &fakeSink{}
	var calls []sinkCall

	summary, err := newPipeline(t, &posetest.Detector{Fail: true}).Run(&fakeSource{frames: frames}, standingCorpus(), sinkFactory(sink, &calls))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ScoredFrames)
	assert.Same(t, frames[0], sink.frames[0])
}

func TestRun_EmptyCorpus(t *testing.T) {
	var calls []sinkCall
	_, err := newPipeline(t, markerDetector()).Run(&fakeSource{frames: []image.Image{personFrame(true)}}, &reference.Corpus{}, sinkFactory(&fakeSink{}, &calls))

	assert.ErrorIs(t, err, similarity.ErrEmptyCorpus)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Empty(t, calls, "参考表为空时不应产生输出")
}

func TestRun_EmptyVideo(t *testing.T) {
	var calls []sinkCall
	_, err := newPipeline(t, markerDetector()).Run(&fakeSource{}, standingCorpus(), sinkFactory(&fakeSink{}, &calls))

	assert.ErrorIs(t, err, ErrEmptyVideo)
	assert.Empty(t, calls)
}

func TestRun_OutputFailures(t *testing.T) {
	src := &fakeSource{frames: []image.Image{personFrame(true)}}
	failing := func(float64, int, int) (Sink, error) { return nil, errors.New("disk full") }

	_, err := newPipeline(t, markerDetector()).Run(src, standingCorpus(), failing)
	assert.ErrorIs(t, err, ErrOutputWrite)

	sink := &fakeSink{writeErr: errors.New("broken pipe")}
	var calls []sinkCall
	_, err = newPipeline(t, markerDetector()).Run(&fakeSource{frames: []image.Image{personFrame(false)}}, standingCorpus(), sinkFactory(sink, &calls))
	assert.ErrorIs(t, err, ErrOutputWrite)
	assert.True(t, sink.closed, "出错时也要关闭输出")
}

func TestRun_ReadError(t *testing.T) {
	sink := &fakeSink{}
	var calls []sinkCall
	src := &fakeSource{frames: []image.Image{personFrame(false)}, err: errors.New("corrupt packet")}

	_, err := newPipeline(t, markerDetector()).Run(src, standingCorpus(), sinkFactory(sink, &calls))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.True(t, sink.closed)
}

func writeCorpus(t *testing.T, rows ...pose.Angles) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pro_forehand_angles.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var out []reference.Row
	for i, r := range rows {
		out = append(out, reference.Row{Angles: r, Filename: filepath.Join("frames", string(rune('a'+i))+".jpg")})
	}
	require.NoError(t, reference.WriteCSV(f, out))
	return path
}

func TestAnalyze(t *testing.T) {
	src := &fakeSource{frames: []image.Image{personFrame(true)}, fps: 60}
	sink := &fakeSink{}
	var gotPath, gotCodec string

	p := newPipeline(t, markerDetector(), WithVideoIO(
		func(string) (Source, error) { return src, nil },
		func(path, codec string, fps float64, w, h int) (Sink, error) {
			gotPath, gotCodec = path, codec
			return sink, nil
		},
	))

	summary, err := p.Analyze("swing.mp4", writeCorpus(t, pose.JointAngles(posetest.Standing())), "out.mp4")
	require.NoError(t, err)

	assert.Equal(t, "out.mp4", summary.OutputPath)
	assert.Equal(t, "out.mp4", gotPath)
	assert.Equal(t, "mp4v", gotCodec)
	assert.InDelta(t, 1.0, summary.Report.OverallSimilarity, 1e-9)
	assert.True(t, src.closed)
	assert.True(t, sink.closed)
}

func TestAnalyze_InitFailures(t *testing.T) {
	src := &fakeSource{frames: []image.Image{personFrame(true)}}
	sinkCreated := false
	create := func(string, string, float64, int, int) (Sink, error) {
		sinkCreated = true
		return &fakeSink{}, nil
	}

	p := newPipeline(t, markerDetector(), WithVideoIO(func(string) (Source, error) { return src, nil }, create))
	_, err := p.Analyze("swing.mp4", filepath.Join(t.TempDir(), "missing.csv"), "out.mp4")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, reference.ErrLoad)
	assert.True(t, src.closed)

	p = newPipeline(t, markerDetector(), WithVideoIO(func(string) (Source, error) { return nil, os.ErrNotExist }, create))
	_, err = p.Analyze("missing.mp4", writeCorpus(t, pose.Angles{pose.RightElbowJoint: 1}), "out.mp4")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.False(t, sinkCreated, "初始化失败时不应产生输出")
}
