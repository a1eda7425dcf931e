package pose_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/getcharzp/go-swing/pose"
	"github.com/getcharzp/go-swing/pose/posetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestPreprocessor_Process(t *testing.T) {
	det := posetest.Always(pose.LandmarkSet{
		pose.RightShoulder: {X: 0.25, Y: 0.25},
		pose.LeftAnkle:     {X: 0.75, Y: 0.5},
	})
	p := pose.NewPreprocessor(det, pose.DefaultPreprocessConfig())

	out, bounds, err := p.Process(newFrame(400, 200))
	require.NoError(t, err)
	require.NotNil(t, bounds)

	// x: 100..300 外扩 50 -> 50..350; y: 50..100 外扩 50 -> 0..150
	assert.Equal(t, pose.CropBounds{MinX: 50, MaxX: 350, MinY: 0, MaxY: 150}, *bounds)
	assert.Equal(t, 500, out.Bounds().Dx())
	assert.Equal(t, 800, out.Bounds().Dy())
}

func TestPreprocessor_ClampToFrame(t *testing.T) {
	det := posetest.Always(pose.LandmarkSet{
		pose.RightShoulder: {X: 0.0, Y: 0.0},
		pose.LeftAnkle:     {X: 1.0, Y: 1.0},
	})
	p := pose.NewPreprocessor(det, pose.PreprocessConfig{Width: 50, Height: 80, Padding: 50})

	_, bounds, err := p.Process(newFrame(120, 90))
	require.NoError(t, err)
	require.NotNil(t, bounds)
	assert.Equal(t, pose.CropBounds{MinX: 0, MaxX: 120, MinY: 0, MaxY: 90}, *bounds)
}

func TestPreprocessor_NoPerson(t *testing.T) {
	frame := newFrame(64, 64)
	p := pose.NewPreprocessor(posetest.Never(), pose.DefaultPreprocessConfig())

	out, bounds, err := p.Process(frame)
	require.NoError(t, err)
	assert.Nil(t, bounds)
	assert.Same(t, frame, out, "未检测到人体时应原样返回输入帧")
}

func TestPreprocessor_DetectorError(t *testing.T) {
	frame := newFrame(64, 64)
	p := pose.NewPreprocessor(&posetest.Detector{Fail: true}, pose.DefaultPreprocessConfig())

	out, bounds, err := p.Process(frame)
	assert.ErrorIs(t, err, posetest.ErrInference)
	assert.Nil(t, bounds)
	assert.Same(t, frame, out)
}

func TestPreprocessor_EmptyBox(t *testing.T) {
	det := posetest.Always(pose.LandmarkSet{
		pose.RightShoulder: {X: 3, Y: 3},
		pose.LeftAnkle:     {X: 4, Y: 4},
	})
	p := pose.NewPreprocessor(det, pose.PreprocessConfig{Width: 10, Height: 10, Padding: 5})

	_, bounds, err := p.Process(newFrame(64, 64))
	require.NoError(t, err)
	assert.Nil(t, bounds)
}

func TestReproject(t *testing.T) {
	b := pose.CropBounds{MinX: 10, MaxX: 110, MinY: 20, MaxY: 220}
	got := pose.Reproject(pose.LandmarkSet{pose.RightElbow: {X: 0.5, Y: 0.5}}, b)

	assert.Equal(t, pose.Point{X: 60, Y: 120}, got[pose.RightElbow])
}

func TestExtractor_Extract(t *testing.T) {
	e := pose.NewExtractor(posetest.Always(posetest.Standing()))

	kpts, angles, ok, err := e.Extract(newFrame(10, 10))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Len(t, kpts, 12)
	assert.Len(t, angles, 8)
	assert.InDelta(t, 180, angles[pose.RightElbowJoint], 1e-9)
	assert.InDelta(t, 180, angles[pose.LeftKneeJoint], 1e-9)
	for _, j := range pose.Joints {
		assert.Contains(t, angles, j)
	}
}

func TestExtractor_DropsExtraLandmarks(t *testing.T) {
	kpts := posetest.Standing()
	kpts["nose"] = pose.Point{X: 0.5, Y: 0.1}
	e := pose.NewExtractor(posetest.Always(kpts))

	got, _, ok, err := e.Extract(newFrame(10, 10))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, got, pose.Landmark("nose"))
}

func TestExtractor_MissingLandmark(t *testing.T) {
	kpts := posetest.Standing()
	delete(kpts, pose.LeftWrist)
	e := pose.NewExtractor(posetest.Always(kpts))

	got, angles, ok, err := e.Extract(newFrame(10, 10))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Nil(t, angles)
}

func TestExtractor_NoPose(t *testing.T) {
	e := pose.NewExtractor(posetest.Never())

	_, _, ok, err := e.Extract(newFrame(10, 10))
	require.NoError(t, err)
	assert.False(t, ok)
}
