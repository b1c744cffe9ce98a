package main

import (
	"path/filepath"
	"testing"

	"github.com/marketwisdom/insiderwatch/internal/config"
)

func TestApplyOutDirRedirectsAllArtifacts(t *testing.T) {
	c := &config.Config{
		Output: config.OutputConfig{DataDir: "data", ChartsDir: "charts"},
	}
	applyOutDir(c, "/tmp/run1")

	if c.Output.DataDir != "/tmp/run1" {
		t.Errorf("DataDir = %q, want /tmp/run1", c.Output.DataDir)
	}
	if want := filepath.Join("/tmp/run1", "charts"); c.Output.ChartsDir != want {
		t.Errorf("ChartsDir = %q, want %q (charts must follow --out)", c.Output.ChartsDir, want)
	}
}
