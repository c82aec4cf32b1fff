package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Peaks.Width != 10 {
		t.Errorf("peak width = %d, want 10", cfg.Peaks.Width)
	}
	if cfg.Peaks.MaxPeaks != 30000 {
		t.Errorf("max peaks = %d, want 30000", cfg.Peaks.MaxPeaks)
	}
	if cfg.Peaks.TargetNeighborhood != 20 {
		t.Errorf("target neighborhood = %g, want 20", cfg.Peaks.TargetNeighborhood)
	}
	if cfg.Cluster.Clusters != 0 {
		t.Errorf("clusters = %d, want 0 (disabled)", cfg.Cluster.Clusters)
	}
	if cfg.Cluster.MaxIterations != 100 {
		t.Errorf("max iterations = %d, want 100", cfg.Cluster.MaxIterations)
	}
	if cfg.Align.Enabled {
		t.Error("alignment enabled by default")
	}
	if !cfg.Output.Verbose {
		t.Error("verbose output disabled by default")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must yield defaults, got error: %v", err)
	}
	if cfg.Peaks.Width != DefaultConfig().Peaks.Width {
		t.Error("missing file did not yield the default configuration")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peakstack.yaml")

	cfg := DefaultConfig()
	cfg.Peaks.Width = 7
	cfg.Peaks.Subpixel = true
	cfg.Cluster.Clusters = 4
	cfg.Align.Enabled = true
	cfg.Align.Cascade = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Peaks.Width != 7 || !loaded.Peaks.Subpixel {
		t.Errorf("peak settings did not round trip: %+v", loaded.Peaks)
	}
	if loaded.Cluster.Clusters != 4 {
		t.Errorf("clusters = %d, want 4", loaded.Cluster.Clusters)
	}
	if !loaded.Align.Enabled || !loaded.Align.Cascade {
		t.Errorf("alignment settings did not round trip: %+v", loaded.Align)
	}
}
