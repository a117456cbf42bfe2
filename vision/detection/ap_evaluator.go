package detection

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/evalkit/evaluation"
	"go.viam.com/evalkit/logging"
)

// BBoxTask is the task name APEvaluator reports under.
const BBoxTask = "bbox"

// iouThresholds are 0.50:0.05:0.95.
var iouThresholds = lo.Map(lo.Range(10), func(i, _ int) float64 { return 0.5 + 0.05*float64(i) })

type scoredBox struct {
	imageID int
	score   float64
	box     Box
}

// APEvaluator computes box average precision per class, averaged over IoU thresholds
// 0.50:0.05:0.95 with all-point interpolation. Scores are reported in percent.
type APEvaluator struct {
	classes       []string
	isMainProcess func() bool
	logger        logging.Logger

	predictions map[int][]scoredBox
	// class -> image id -> boxes
	groundTruth map[int]map[int][]Box
	numGT       map[int]int
}

// NewAPEvaluator returns an evaluator over the given class names. Only the main process
// reports results; a nil isMainProcess means a single process run.
func NewAPEvaluator(classes []string, isMainProcess func() bool, logger logging.Logger) *APEvaluator {
	if isMainProcess == nil {
		isMainProcess = func() bool { return true }
	}
	ev := &APEvaluator{classes: classes, isMainProcess: isMainProcess, logger: logger}
	ev.Reset()
	return ev
}

// Reset drops everything processed so far.
func (ev *APEvaluator) Reset() {
	ev.predictions = map[int][]scoredBox{}
	ev.groundTruth = map[int]map[int][]Box{}
	ev.numGT = map[int]int{}
}

// Process records the ground truth of inputs and the predictions in outputs.
func (ev *APEvaluator) Process(ctx context.Context, inputs []Input, outputs []Output) error {
	if len(inputs) != len(outputs) {
		return errors.Errorf("got %d outputs for %d inputs", len(outputs), len(inputs))
	}
	// nothing is recorded unless the whole batch is valid
	for i, in := range inputs {
		for _, ann := range in.Annotations {
			if err := ev.checkClass(ann.Class); err != nil {
				return err
			}
		}
		inst := outputs[i].Instances
		for j := 0; j < inst.Len(); j++ {
			if err := ev.checkClass(inst.Classes[j]); err != nil {
				return err
			}
		}
	}

	for i, in := range inputs {
		for _, ann := range in.Annotations {
			perImage, ok := ev.groundTruth[ann.Class]
			if !ok {
				perImage = map[int][]Box{}
				ev.groundTruth[ann.Class] = perImage
			}
			perImage[in.ImageID] = append(perImage[in.ImageID], ann.Box)
			ev.numGT[ann.Class]++
		}
		inst := outputs[i].Instances
		for j := 0; j < inst.Len(); j++ {
			class := inst.Classes[j]
			ev.predictions[class] = append(ev.predictions[class], scoredBox{
				imageID: in.ImageID,
				score:   inst.Scores[j],
				box:     inst.Boxes[j],
			})
		}
	}
	return nil
}

func (ev *APEvaluator) checkClass(class int) error {
	if class < 0 || class >= len(ev.classes) {
		return errors.Errorf("class %d out of range for %d classes", class, len(ev.classes))
	}
	return nil
}

// Evaluate reports AP, AP50, AP75 and AP-<class> for every class with ground truth. Classes
// without ground truth are left out of the averages.
func (ev *APEvaluator) Evaluate(ctx context.Context) (*evaluation.Results, error) {
	if !ev.isMainProcess() {
		return nil, nil
	}
	_, span := trace.StartSpan(ctx, "detection::APEvaluator::Evaluate")
	defer span.End()

	results := evaluation.NewResults()
	classes := lo.Filter(lo.Range(len(ev.classes)), func(c, _ int) bool { return ev.numGT[c] > 0 })
	if len(classes) == 0 {
		ev.logger.Warn("No ground truth annotations were processed, skipping box AP")
		return results, nil
	}

	var sumAP, sumAP50, sumAP75 float64
	perClass := make(evaluation.Metrics, 0, len(classes))
	for _, c := range classes {
		aps := lo.Map(iouThresholds, func(t float64, _ int) float64 {
			return averagePrecision(ev.predictions[c], ev.groundTruth[c], ev.numGT[c], t)
		})
		classAP := lo.Sum(aps) / float64(len(aps))
		sumAP += classAP
		sumAP50 += aps[0]
		sumAP75 += aps[5]
		perClass = append(perClass, evaluation.Metric{Name: "AP-" + ev.classes[c], Score: 100 * classAP})
	}
	n := float64(len(classes))
	metrics := evaluation.Metrics{
		{Name: "AP", Score: 100 * sumAP / n},
		{Name: "AP50", Score: 100 * sumAP50 / n},
		{Name: "AP75", Score: 100 * sumAP75 / n},
	}
	if err := results.Add(BBoxTask, append(metrics, perClass...)); err != nil {
		return nil, err
	}
	return results, nil
}

// averagePrecision matches predictions to ground truth greedily by descending score at IoU
// threshold thresh and returns the area under the interpolated precision/recall curve.
func averagePrecision(predictions []scoredBox, groundTruth map[int][]Box, numGT int, thresh float64) float64 {
	if numGT == 0 {
		return 0
	}
	sorted := append([]scoredBox(nil), predictions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	matched := make(map[int][]bool, len(groundTruth))
	for id, boxes := range groundTruth {
		matched[id] = make([]bool, len(boxes))
	}

	precision := make([]float64, len(sorted))
	recall := make([]float64, len(sorted))
	var tp, fp float64
	for i, pred := range sorted {
		best, bestIoU := -1, thresh
		for k, gt := range groundTruth[pred.imageID] {
			if matched[pred.imageID][k] {
				continue
			}
			if iou := pred.box.IoU(gt); iou >= bestIoU {
				best, bestIoU = k, iou
			}
		}
		if best >= 0 {
			matched[pred.imageID][best] = true
			tp++
		} else {
			fp++
		}
		precision[i] = tp / (tp + fp)
		recall[i] = tp / float64(numGT)
	}

	// precision envelope, then the area under it
	mrec := append(append([]float64{0}, recall...), 1)
	mpre := append(append([]float64{0}, precision...), 0)
	for i := len(mpre) - 2; i >= 0; i-- {
		mpre[i] = max(mpre[i], mpre[i+1])
	}
	var ap float64
	for i := 1; i < len(mrec); i++ {
		ap += (mrec[i] - mrec[i-1]) * mpre[i]
	}
	return ap
}
