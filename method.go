package segbench

import (
	"fmt"
	"sort"
	"strings"
)

// Method enumerates the supported thresholding strategies.
type Method int

const (
	// GlobalInteger thresholds the whole image at the Otsu bin index.
	GlobalInteger Method = iota
	// GlobalFloat thresholds the whole image at the sub-bin interpolated Otsu value.
	GlobalFloat
	// Local thresholds every pixel against the Otsu threshold of its neighbourhood.
	Local
)

// Methods lists every strategy in its canonical order.
var Methods = []Method{GlobalInteger, GlobalFloat, Local}

var methodNames = map[Method]string{
	GlobalInteger: "Otsu Global (custom)",
	GlobalFloat:   "Otsu Global Float (custom)",
	Local:         "Otsu Local (custom)",
}

var methodKeys = map[Method]string{
	GlobalInteger: "global",
	GlobalFloat:   "global-float",
	Local:         "local",
}

// String returns the name used in the exported score tables.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Key returns the short identifier used on the command line.
func (m Method) Key() string {
	return methodKeys[m]
}

// ParseMethod accepts either the short key or the display name of a method.
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	for _, m := range Methods {
		if strings.EqualFold(s, m.Key()) || s == m.String() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown method %q: %w", s, ErrInvalidParameter)
}

// ParseMethods parses a comma separated list of methods, ignoring duplicates.
func ParseMethods(list string) ([]Method, error) {
	var (
		methods []Method
		seen    = make(map[Method]bool)
	)
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		m, err := ParseMethod(s)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no method selected: %w", ErrInvalidParameter)
	}
	return methods, nil
}

// Segment produces the binary mask of the grid using the method.
func (m Method) Segment(g *Grid, cfg Config) (*Mask, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch m {
	case GlobalInteger, GlobalFloat:
		h, err := BuildHistogram(g, cfg.Bins, cfg.Min, cfg.Max)
		if err != nil {
			return nil, err
		}
		p, err := h.Distribution()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		var t float64
		if m == GlobalInteger {
			ti, err := OtsuThreshold(p)
			if err != nil {
				return nil, err
			}
			t = float64(ti)
		} else {
			t, err = OtsuThresholdFloat(p, h.Edges)
			if err != nil {
				return nil, err
			}
		}
		return Binarize(g, t), nil
	case Local:
		_, mask, err := LocalOtsu(g, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		return mask, nil
	}
	return nil, fmt.Errorf("unknown method %d: %w", int(m), ErrInvalidParameter)
}

// Prediction is the mask one method produced for an image.
type Prediction struct {
	Method Method
	Mask   *Mask
}

// Segment runs the methods on the grid in the given order.
func Segment(g *Grid, cfg Config, methods ...Method) ([]Prediction, error) {
	preds := make([]Prediction, 0, len(methods))
	for _, m := range methods {
		mask, err := m.Segment(g, cfg)
		if err != nil {
			return nil, err
		}
		preds = append(preds, Prediction{Method: m, Mask: mask})
	}
	return preds, nil
}

// Score is the Dice coefficient a method obtained against the ground truth.
type Score struct {
	Method Method
	Dice   float64
}

// Evaluate scores every prediction against the ground truth mask,
// best scoring method first.
func Evaluate(gt *Mask, preds []Prediction) ([]Score, error) {
	scores := make([]Score, 0, len(preds))
	for _, p := range preds {
		d, err := Dice(p.Mask, gt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Method, err)
		}
		scores = append(scores, Score{Method: p.Method, Dice: d})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Dice > scores[j].Dice
	})
	return scores, nil
}
