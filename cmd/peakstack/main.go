package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"gonum.org/v1/gonum/stat"

	"peakstack/internal/models"
	"peakstack/pkg/align"
	"peakstack/pkg/cluster"
	"peakstack/pkg/config"
	"peakstack/pkg/peakchar"
)

func main() {
	inputDir := flag.String("input", "", "Directory containing the image stack (JPEG, PNG or TIFF)")
	configPath := flag.String("config", "peakstack.yaml", "Configuration file")
	peakWidth := flag.Int("peak-width", 0, "Expected peak width in pixels (overrides config)")
	clusters := flag.Int("clusters", -1, "Number of clusters to form, 0 disables (overrides config)")
	doAlign := flag.Bool("align", false, "Register the stack by phase correlation before characterization")
	flag.Parse()

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *peakWidth > 0 {
		cfg.Peaks.Width = *peakWidth
	}
	if *clusters >= 0 {
		cfg.Cluster.Clusters = *clusters
	}
	if *doAlign {
		cfg.Align.Enabled = true
	}

	stack, err := loadStack(*inputDir)
	if err != nil {
		log.Fatalf("Failed to load stack: %v", err)
	}
	w, h := stack.FrameSize()
	fmt.Printf("Loaded %d frames of %dx%d from %s\n", stack.FrameCount(), w, h, *inputDir)

	if cfg.Align.Enabled {
		reference := align.Current
		if cfg.Align.Cascade {
			reference = align.Cascade
		}
		shifts, err := align.EstimateStackShifts(stack, reference, align.Options{
			Hanning:       cfg.Align.Hanning,
			MedfiltRadius: cfg.Align.MedfiltRadius,
			Sobel:         cfg.Align.Sobel,
			Normalize:     cfg.Align.Normalize,
		})
		if err != nil {
			log.Fatalf("Shift estimation failed: %v", err)
		}
		stack, err = align.Apply(stack, shifts, 0)
		if err != nil {
			log.Fatalf("Alignment failed: %v", err)
		}
		if cfg.Output.Verbose {
			for i, s := range shifts {
				fmt.Printf("  frame %3d shift (%+.0f, %+.0f)\n", i, s[0], s[1])
			}
		}
	}

	start := time.Now()
	table, err := peakchar.Build(stack, peakchar.BuildOptions{
		PeakWidth:          cfg.Peaks.Width,
		Subpixel:           cfg.Peaks.Subpixel,
		MedfiltRadius:      cfg.Peaks.MedfiltRadius,
		Threshold:          cfg.Peaks.Threshold,
		TargetNeighborhood: cfg.Peaks.TargetNeighborhood,
		MaxPeaks:           cfg.Peaks.MaxPeaks,
	})
	if err != nil {
		log.Fatalf("Characterization failed: %v", err)
	}
	fmt.Printf("Characterized %d target peaks across %d frames in %.2fs\n",
		table.NumPeaks(), table.NumImages(), time.Since(start).Seconds())

	printSummary(table)

	if cfg.Cluster.Clusters > 0 {
		engine := cluster.NewEngine(&cluster.KMeans{MaxIterations: cfg.Cluster.MaxIterations})
		result, err := engine.Cluster(stack, cfg.Cluster.Clusters, nil)
		if err != nil {
			log.Fatalf("Clustering failed: %v", err)
		}
		fmt.Printf("\nClustered %d frames into %d groups:\n", stack.FrameCount(), cfg.Cluster.Clusters)
		for c, count := range result.Counts {
			fmt.Printf("  cluster %d: %d members\n", c, count)
		}
		for _, c := range result.EmptyClusters {
			fmt.Printf("  warning: cluster %d received no members\n", c)
		}
	}
}

// printSummary reports per-target match counts and mean heights.
func printSummary(table *peakchar.Table) {
	fmt.Println("\nTarget peaks:")
	for p, target := range table.Targets() {
		heights := table.Characteristic(p, peakchar.CharHeight)
		matched := 0
		var vals []float64
		for i := 0; i < heights.Len(); i++ {
			if v := heights.AtVec(i); v > 0 {
				matched++
				vals = append(vals, v)
			}
		}
		mean := 0.0
		if len(vals) > 0 {
			mean = stat.Mean(vals, nil)
		}
		fmt.Printf("  peak %3d at (%.1f, %.1f): matched in %d/%d frames, mean height %.3f\n",
			p, target[0], target[1], matched, table.NumImages(), mean)
	}
}

// loadStack reads every supported image in the directory, sorted by the
// numeric part of the filename so frame order follows acquisition order,
// and converts them to grayscale frames.
func loadStack(dir string) (*models.Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported images found in %s", dir)
	}
	sort.Slice(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	frames := make([]*models.Frame, 0, len(files))
	for _, name := range files {
		frame, err := loadFrame(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		frames = append(frames, frame)
	}

	return models.NewStack(frames, nil)
}

// loadFrame decodes one image file into a grayscale float frame in the
// 0-1 range.
func loadFrame(path string) (*models.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	frame := models.NewFrame(bounds.Dx(), bounds.Dy())
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			frame.Pix[y*frame.W+x] = float64(r) / 65535.0
		}
	}
	return frame, nil
}

// extractNumber extracts the numeric part from a filename.
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}
