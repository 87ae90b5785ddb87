package segbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Runner evaluates the thresholding methods over the image and ground truth pairs of a dataset layout.
type Runner struct {
	Config  Config
	Methods []Method
	// Workers is the number of image pairs processed concurrently.
	Workers int
	// Matcher maps input images onto ground truth file names. DefaultMatcher is used when nil.
	Matcher Matcher
	// GroundTruthThreshold is the intensity a ground truth pixel must exceed to be foreground.
	GroundTruthThreshold float64
	// VisualDir, when set, receives a comparison panel for every evaluated image.
	VisualDir string
	Logger    zerolog.Logger
}

// NewRunner creates a runner evaluating every method with the given configuration.
func NewRunner(cfg Config, logger zerolog.Logger) *Runner {
	return &Runner{
		Config:  cfg,
		Methods: Methods,
		Workers: runtime.NumCPU(),
		Matcher: DefaultMatcher,
		Logger:  logger,
	}
}

// result holds the scores of a single pair together with its position in the dataset.
type result struct {
	index   int
	pair    Pair
	records []Record
	err     error
}

// Run walks the dataset directories of base and evaluates each of them.
// Datasets without an image or a ground truth directory are skipped,
// as are the datasets failing as a whole.
func (r *Runner) Run(ctx context.Context, base string) ([]Record, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	datasets, err := Datasets(base)
	if err != nil {
		return nil, fmt.Errorf("unable to read the data directory: %w", err)
	}

	var all []Record
	for _, name := range datasets {
		dir := filepath.Join(base, name)
		if !isDir(filepath.Join(dir, ImageDir)) || !isDir(filepath.Join(dir, GroundTruthDir)) {
			r.Logger.Warn().
				Str("component", "runner").
				Str("dataset", name).
				Msgf("skipping dataset, %q or %q directory is missing", ImageDir, GroundTruthDir)
			continue
		}
		r.Logger.Info().Str("component", "runner").Str("dataset", name).Msg("processing dataset")

		records, err := r.RunDataset(ctx, dir, name)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			r.Logger.Error().Str("component", "runner").Str("dataset", name).Err(err).Msg("dataset failed")
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}

// RunDataset evaluates every image pair of a single dataset directory concurrently.
// Failing pairs are logged and left out of the returned records.
func (r *Runner) RunDataset(ctx context.Context, dir, dataset string) ([]Record, error) {
	pairs, missing, err := DiscoverPairs(dir, dataset, r.Matcher)
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		r.Logger.Warn().
			Str("component", "runner").
			Str("dataset", dataset).
			Str("image", name).
			Msg("ground truth missing, skipping")
	}

	if r.VisualDir != "" {
		if err := os.MkdirAll(r.VisualDir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create the visuals directory: %w", err)
		}
	}

	workers := r.Workers
	// Limit the concurrently running workers to maxWorkers.
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan result)

	// Feed the pair indices to the workers until all of them are sent or the run is cancelled.
	go func() {
		defer close(jobs)
		for i := range pairs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			r.consumer(ctx, pairs, jobs, results)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(results)
		wg.Wait()
	}()

	byPair := make([][]Record, len(pairs))
	for res := range results {
		if res.err != nil {
			r.Logger.Error().
				Str("component", "runner").
				Str("dataset", dataset).
				Str("image", res.pair.Name()).
				Err(res.err).
				Msg("evaluation failed, skipping")
			continue
		}
		byPair[res.index] = res.records
		r.Logger.Debug().
			Str("component", "runner").
			Str("dataset", dataset).
			Str("image", res.pair.Name()).
			Int("methods", len(res.records)).
			Msg("image evaluated")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []Record
	for _, rec := range byPair {
		records = append(records, rec...)
	}
	if len(records) == 0 {
		r.Logger.Warn().Str("component", "runner").Str("dataset", dataset).Msg("no valid image and ground truth pairs")
	}
	return records, nil
}

// consumer reads the pair indices from the jobs channel and evaluates the pairs.
func (r *Runner) consumer(ctx context.Context, pairs []Pair, jobs <-chan int, res chan<- result) {
	for i := range jobs {
		records, err := r.EvaluatePair(pairs[i])

		select {
		case <-ctx.Done():
			return
		case res <- result{
			index:   i,
			pair:    pairs[i],
			records: records,
			err:     err,
		}:
		}
	}
}

// EvaluatePair segments the input image with every method of the runner and
// scores the masks against the ground truth, best method first.
func (r *Runner) EvaluatePair(p Pair) ([]Record, error) {
	grid, err := LoadGrid(p.Image)
	if err != nil {
		return nil, err
	}
	gt, err := LoadMask(p.GroundTruth, r.GroundTruthThreshold)
	if err != nil {
		return nil, err
	}

	methods := r.Methods
	if len(methods) == 0 {
		methods = Methods
	}
	preds, err := Segment(grid, r.Config, methods...)
	if err != nil {
		return nil, err
	}
	scores, err := Evaluate(gt, preds)
	if err != nil {
		return nil, err
	}

	if r.VisualDir != "" {
		name := p.Name() + ".png"
		if p.Dataset != "" {
			name = p.Dataset + "_" + name
		}
		if err := WritePanel(filepath.Join(r.VisualDir, name), grid, gt, preds); err != nil {
			return nil, err
		}
	}

	records := make([]Record, 0, len(scores))
	for _, s := range scores {
		records = append(records, Record{
			Image:   p.Name(),
			Method:  s.Method.String(),
			Score:   s.Dice,
			Dataset: p.Dataset,
		})
	}
	return records, nil
}
