package detector

import (
	"github.com/getcharzp/go-swing/pose"
	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/imageutil"
	"image"
	"sort"
)

// preprocess 预处理
func preprocess(img image.Image, inputSize int) (*ort.Value, imageParams, error) {
	data, params := letterbox(img, inputSize)
	tensor, err := ort.NewTensor([]int64{1, 3, int64(inputSize), int64(inputSize)}, data)
	return tensor, params, err
}

// letterbox 等比缩放到 inputSize, 左上对齐, 输出 CHW 且归一化到 0-1
func letterbox(img image.Image, inputSize int) ([]float32, imageParams) {
	bounds := img.Bounds()
	params := imageParams{
		origW: bounds.Dx(),
		origH: bounds.Dy(),
	}

	scale := float32(inputSize) / float32(max(params.origW, params.origH))
	params.scale = scale

	newW := int(float32(params.origW) * scale)
	newH := int(float32(params.origH) * scale)

	resized := imageutil.Resize(img, newW, newH)
	rb := resized.Bounds()

	data := make([]float32, 3*inputSize*inputSize)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, b, _ := resized.At(rb.Min.X+x, rb.Min.Y+y).RGBA()

			idx := y*inputSize + x
			data[idx] = float32(r) / 65535.0                       // R
			data[inputSize*inputSize+idx] = float32(g) / 65535.0   // G
			data[2*inputSize*inputSize+idx] = float32(b) / 65535.0 // B
		}
	}
	return data, params
}

// nms 非极大值抑制，过滤掉重叠度过高的检测框
//
// # Params:
//
//	cands: 候选框
//	iouThresh: IOU 阈值
func nms(cands []candidate, iouThresh float32) []int {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	keep := make([]int, 0)
	suppressed := make([]bool, len(cands))

	for i := 0; i < len(cands); i++ {
		if suppressed[i] {
			continue
		}
		keep = append(keep, i)

		for j := i + 1; j < len(cands); j++ {
			if suppressed[j] {
				continue
			}
			if computeIOU(cands[i].origBox, cands[j].origBox) > iouThresh {
				suppressed[j] = true
			}
		}
	}
	return keep
}

func computeIOU(r1, r2 image.Rectangle) float32 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}

	interArea := intersect.Dx() * intersect.Dy()
	area1 := r1.Dx() * r1.Dy()
	area2 := r2.Dx() * r2.Dy()

	return float32(interArea) / float32(area1+area2-interArea)
}

// cocoLandmarks COCO-pose 关键点顺序
//
//	https://github.com/ultralytics/ultralytics/blob/main/ultralytics/cfg/datasets/coco-pose.yaml
var cocoLandmarks = []pose.Landmark{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftElbow, pose.RightElbow,
	pose.LeftWrist, pose.RightWrist,
	pose.LeftHip, pose.RightHip,
	pose.LeftKnee, pose.RightKnee,
	pose.LeftAnkle, pose.RightAnkle,
}

// toLandmarkSet 将原图像素坐标的关键点归一化到 [0,1]
func toLandmarkSet(kpts []KeyPoint, origW, origH int) pose.LandmarkSet {
	set := make(pose.LandmarkSet, len(kpts))
	for i, kp := range kpts {
		if i >= len(cocoLandmarks) {
			break
		}
		set[cocoLandmarks[i]] = pose.Point{
			X: float64(kp.X) / float64(origW),
			Y: float64(kp.Y) / float64(origH),
		}
	}
	return set
}

// best 得分最高的结果
func best(results []PoseResult) (PoseResult, bool) {
	if len(results) == 0 {
		return PoseResult{}, false
	}
	top := results[0]
	for _, r := range results[1:] {
		if r.Score > top.Score {
			top = r
		}
	}
	return top, true
}
