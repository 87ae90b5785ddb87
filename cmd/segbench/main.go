package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/esimov/segbench"
	"github.com/esimov/segbench/utils"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌─┐┌─┐┌┐ ┌─┐┌┐┌┌─┐┬ ┬
└─┐├┤ │ ┬├┴┐├┤ ││││  ├─┤
└─┘└─┘└─┘└─┘└─┘┘└┘└─┘┴ ┴

Otsu thresholding benchmark for cell segmentation datasets.
    Version: %s

`

// pipeName is the file name that indicates stdout is being used.
const pipeName = "-"

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// spinner used to instantiate and call the progress indicator.
var spinner *utils.Spinner

// Version indicates the current build version.
var Version string

var (
	// Flags
	dataDir     = flag.String("data", "data", "Base directory of the datasets")
	source      = flag.String("in", "", "Single input image, local path or URL")
	groundTruth = flag.String("gt", "", "Ground truth mask of the single input image")
	destination = flag.String("out", "results.csv", "Destination of the score table, `-` for stdout")
	methodList  = flag.String("methods", "global,global-float,local", "Comma separated list of methods")
	bins        = flag.Int("bins", 256, "Number of histogram bins")
	minValue    = flag.Float64("min", 0, "Lower bound of the histogram range")
	maxValue    = flag.Float64("max", 255, "Upper bound of the histogram range")
	radius      = flag.Int("radius", 3, "Local window radius")
	padMode     = flag.String("pad", string(segbench.PadSymmetric), "Border extension of the local windows: symmetric or reflect")
	sliding     = flag.Bool("sliding", false, "Use the sliding column histogram for the local method")
	gtThreshold = flag.Float64("gtthr", 0, "Intensity a ground truth pixel must exceed to be foreground")
	visualDir   = flag.String("visuals", "", "Directory receiving the comparison panels")
	summary     = flag.Bool("summary", false, "Print the per method statistics")
	logLevel    = flag.String("log", "info", "Log level: debug, info, warn, error")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of images to process concurrently")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	isTerm := term.IsTerminal(int(os.Stderr.Fd()))
	utils.NoColor = !isTerm

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf(utils.DecorateText("Invalid log level: %v", utils.ErrorMessage), err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !isTerm,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()

	cfg, methods, err := parseOptions()
	if err != nil {
		flag.Usage()
		log.Fatal(utils.DecorateText("\n"+err.Error(), utils.ErrorMessage))
	}

	// Limit the concurrently running workers to maxWorkers.
	if *workers <= 0 || *workers > maxWorkers {
		*workers = runtime.NumCPU()
	}

	dst, closeDst, err := openDestination(*destination)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	defer closeDst()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ SEGBENCH", utils.StatusMessage),
		utils.DecorateText("is evaluating the images...", utils.DefaultMessage))
	spinner = utils.NewSpinner(os.Stderr, spinnerText, time.Millisecond*200, true)

	runner := segbench.NewRunner(cfg, logger)
	runner.Methods = methods
	runner.Workers = *workers
	runner.GroundTruthThreshold = *gtThreshold
	runner.VisualDir = *visualDir

	now := time.Now()
	// The spinner would be interleaved with the log lines on debug level.
	if isTerm && level > zerolog.DebugLevel {
		spinner.Start()
	}

	var records []segbench.Record
	if *source != "" {
		records, err = evaluateSingle(runner, *source, *groundTruth)
	} else {
		records, err = runner.Run(ctx, *dataDir)
	}
	spinner.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Warn().Msg("no image has been evaluated")
	}

	if err := segbench.WriteCSV(dst, records); err != nil {
		printError(err)
		os.Exit(1)
	}
	if *summary {
		fmt.Fprintln(os.Stderr)
		if err := segbench.WriteSummary(os.Stderr, segbench.Summarize(records)); err != nil {
			printError(err)
			os.Exit(1)
		}
	}
	if *destination != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe scores have been saved as: %s\n",
			utils.DecorateText(filepath.Base(*destination), utils.SuccessMessage))
	}
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// parseOptions builds the thresholding configuration and the method list from the flags.
func parseOptions() (segbench.Config, []segbench.Method, error) {
	pad, err := segbench.ParsePadMode(*padMode)
	if err != nil {
		return segbench.Config{}, nil, err
	}
	cfg := segbench.DefaultConfig()
	cfg.Bins = *bins
	cfg.Min = *minValue
	cfg.Max = *maxValue
	cfg.Radius = *radius
	cfg.Pad = pad
	cfg.Sliding = *sliding
	if err := cfg.Validate(); err != nil {
		return segbench.Config{}, nil, err
	}

	methods, err := segbench.ParseMethods(*methodList)
	if err != nil {
		return segbench.Config{}, nil, err
	}
	if *source != "" && *groundTruth == "" {
		return segbench.Config{}, nil, errors.New("the -gt flag is required together with -in")
	}
	return cfg, methods, nil
}

// evaluateSingle scores a single image and ground truth pair. Both of them may be remote files.
func evaluateSingle(r *segbench.Runner, img, gt string) ([]segbench.Record, error) {
	imgPath, cleanImg, err := localPath(img)
	if err != nil {
		return nil, err
	}
	defer cleanImg()

	gtPath, cleanGt, err := localPath(gt)
	if err != nil {
		return nil, err
	}
	defer cleanGt()

	if r.VisualDir != "" {
		if err := os.MkdirAll(r.VisualDir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create the visuals directory: %w", err)
		}
	}
	return r.EvaluatePair(segbench.Pair{Image: imgPath, GroundTruth: gtPath})
}

// localPath downloads the file if the source is an URL and returns
// the path of a local file together with its cleanup function.
func localPath(src string) (string, func(), error) {
	if !utils.IsValidUrl(src) {
		return src, func() {}, nil
	}
	f, err := utils.DownloadImage(src)
	if err != nil {
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// openDestination returns the writer of the score table.
func openDestination(out string) (io.Writer, func(), error) {
	// Check if the destination is a pipe name or a regular file.
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, func() {}, nil
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// printError displays the reason of a failed run.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s%s",
		utils.DecorateText("\nError evaluating the images", utils.ErrorMessage),
		utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
	)
}
