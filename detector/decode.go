package detector

import (
	"fmt"
	"image"
)

// decodeAnchors YOLOv11-pose 后处理
//
// 输出 [1, 4+NumClasses+NumKeyPoints*3, anchors], 每个 anchor 为
// [cx, cy, w, h, c1.., x1, y1, conf1 ... x17, y17, conf17]
func decodeAnchors(data []float32, shape []int64, cfg Config, params imageParams) ([]PoseResult, error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("输出形状错误: %v", shape)
	}
	channels := int(shape[1])
	anchors := int(shape[2])

	expectedChannels := 4 + cfg.NumClasses + cfg.NumKeyPoints*3
	if channels != expectedChannels {
		return nil, fmt.Errorf("输出通道数(%d)与预期(%d)不匹配", channels, expectedChannels)
	}
	if len(data) < channels*anchors {
		return nil, fmt.Errorf("输出数据长度(%d)不足", len(data))
	}

	kptStartIdx := 4 + cfg.NumClasses
	numKptValues := cfg.NumKeyPoints * 3

	var cands []candidate
	for i := 0; i < anchors; i++ {
		// 找最大分类分数
		maxScore := float32(0.0)
		for c := 0; c < cfg.NumClasses; c++ {
			if score := data[(4+c)*anchors+i]; score > maxScore {
				maxScore = score
			}
		}
		if maxScore < cfg.ConfThreshold {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		// 转换回原图矩形坐标
		origX1 := int((cx - w/2) / params.scale)
		origY1 := int((cy - h/2) / params.scale)
		origX2 := int((cx + w/2) / params.scale)
		origY2 := int((cy + h/2) / params.scale)

		rawKpts := make([]float32, numKptValues)
		for k := 0; k < numKptValues; k++ {
			rawKpts[k] = data[(kptStartIdx+k)*anchors+i]
		}

		cands = append(cands, candidate{
			origBox:      image.Rect(origX1, origY1, origX2, origY2),
			score:        maxScore,
			rawKeyPoints: rawKpts,
		})
	}

	keptIndices := nms(cands, cfg.IOUThreshold)
	results := make([]PoseResult, 0, len(keptIndices))
	for _, idx := range keptIndices {
		cand := cands[idx]
		results = append(results, PoseResult{
			Score:     cand.score,
			Box:       cand.origBox,
			KeyPoints: decodeKeyPoints(cand.rawKeyPoints, cfg.NumKeyPoints, params),
		})
	}
	return results, nil
}

// decodeEnd2End YOLO26-pose 后处理
//
// 输出 [1, 300, 6+NumKeyPoints*3], 每行为
// [x1, y1, x2, y2, score, class, x1, y1, conf1 ...]
func decodeEnd2End(data []float32, cfg Config, params imageParams) []PoseResult {
	attributes := 6 + cfg.NumKeyPoints*3
	numObjects := len(data) / attributes

	results := make([]PoseResult, 0)
	for i := 0; i < numObjects; i++ {
		offset := i * attributes

		score := data[offset+4]
		if score < cfg.ConfThreshold {
			continue
		}

		// 映射回原图尺寸
		origX1 := int(data[offset+0] / params.scale)
		origY1 := int(data[offset+1] / params.scale)
		origX2 := int(data[offset+2] / params.scale)
		origY2 := int(data[offset+3] / params.scale)

		rawKpts := data[offset+6 : offset+attributes]
		results = append(results, PoseResult{
			Score:     score,
			Box:       image.Rect(origX1, origY1, origX2, origY2),
			KeyPoints: decodeKeyPoints(rawKpts, cfg.NumKeyPoints, params),
		})
	}
	return results
}

// decodeKeyPoints 关键点解码, 坐标映射回原图并截断到图片范围
func decodeKeyPoints(raw []float32, numKeyPoints int, params imageParams) []KeyPoint {
	kpts := make([]KeyPoint, numKeyPoints)

	for i := 0; i < numKeyPoints; i++ {
		idx := i * 3
		x := raw[idx]
		y := raw[idx+1]
		conf := raw[idx+2]

		kpts[i] = KeyPoint{
			X:     min(max(0, int(x/params.scale)), params.origW),
			Y:     min(max(0, int(y/params.scale)), params.origH),
			Score: conf,
		}
	}
	return kpts
}
