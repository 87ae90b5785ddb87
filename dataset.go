package segbench

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Directory names of a dataset holding the input images and the ground truth masks.
const (
	ImageDir       = "img"
	GroundTruthDir = "gt"
)

// ImageExtensions lists the input image types picked up from a dataset.
var ImageExtensions = []string{".tif", ".png"}

// Matcher returns the ground truth file name belonging to an input image of a dataset.
type Matcher func(dataset, image string) string

// DefaultMatcher follows the naming of the Cell Tracking Challenge datasets:
// t01.tif is annotated by man_seg01.tif. The NIH3T3 dataset names its masks
// after the image number instead, so dna-0.png is annotated by 0.png.
func DefaultMatcher(dataset, image string) string {
	if dataset == "NIH3T3" {
		num := strings.TrimSuffix(strings.TrimPrefix(image, "dna-"), ".png")
		return num + ".png"
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, image)
	return "man_seg" + digits + ".tif"
}

// Pair is an input image together with its ground truth mask.
type Pair struct {
	Dataset     string
	Image       string
	GroundTruth string
}

// Name returns the base name of the input image.
func (p Pair) Name() string {
	return filepath.Base(p.Image)
}

// DiscoverPairs lists the images of the dataset directory which have a ground truth mask.
// Images without a mask are returned separately in the order they were found.
func DiscoverPairs(dir, dataset string, match Matcher) ([]Pair, []string, error) {
	if match == nil {
		match = DefaultMatcher
	}
	imgDir := filepath.Join(dir, ImageDir)
	gtDir := filepath.Join(dir, GroundTruthDir)
	if !isDir(imgDir) || !isDir(gtDir) {
		return nil, nil, fmt.Errorf("dataset %s: %q or %q directory is missing", dataset, ImageDir, GroundTruthDir)
	}

	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isValidExtension(filepath.Ext(e.Name()), ImageExtensions) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		pairs   []Pair
		missing []string
	)
	for _, name := range names {
		gt := filepath.Join(gtDir, match(dataset, name))
		if fi, err := os.Stat(gt); err != nil || !fi.Mode().IsRegular() {
			missing = append(missing, name)
			continue
		}
		pairs = append(pairs, Pair{
			Dataset:     dataset,
			Image:       filepath.Join(imgDir, name),
			GroundTruth: gt,
		})
	}
	return pairs, missing, nil
}

// Datasets returns the sorted names of the dataset directories found in base.
func Datasets(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
