package segbench

import "fmt"

// Dice returns the Dice coefficient 2|A∩B|/(|A|+|B|) of the predicted and the ground truth mask.
// Two empty masks are considered in perfect agreement and score 1.
func Dice(pred, gt *Mask) (float64, error) {
	if !pred.SameShape(gt) {
		return 0, fmt.Errorf("predicted mask is %dx%d, ground truth is %dx%d: %w",
			pred.Width, pred.Height, gt.Width, gt.Height, ErrShapeMismatch)
	}
	var inter, total int
	for i, p := range pred.Pix {
		g := gt.Pix[i]
		if p && g {
			inter++
		}
		if p {
			total++
		}
		if g {
			total++
		}
	}
	if total == 0 {
		return 1.0, nil
	}
	return 2 * float64(inter) / float64(total), nil
}
