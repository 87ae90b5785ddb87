/*
Package segbench benchmarks binary image segmentation by comparing the masks produced
by several Otsu thresholding strategies against a ground truth mask.

The package implements the histogram based global Otsu threshold (bin index and
sub-bin interpolated variants), the windowed local Otsu threshold and the Dice
coefficient used to rank the methods. Around this core it provides the dataset
loader, a concurrent batch runner, CSV export and visual comparison panels.

The package provides a command line interface. To check the supported flags type:

	$ segbench --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/segbench"
	)

	func main() {
		img, _ := segbench.LoadGrid("t01.tif")
		gt, _ := segbench.LoadMask("man_seg01.tif", 0)

		cfg := segbench.DefaultConfig()
		preds, err := segbench.Segment(img, cfg, segbench.Methods...)
		if err != nil {
			fmt.Printf("Error segmenting image: %s", err.Error())
			return
		}
		scores, _ := segbench.Evaluate(gt, preds)
		for _, s := range scores {
			fmt.Printf("%s: %.4f\n", s.Method, s.Dice)
		}
	}
*/
package segbench
