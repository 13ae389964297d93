package utils

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"
)

// TestFileExists tests the FileExists function
func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()
	configPath := path.Join(tempDir, "config.yaml")
	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		t.Fatalf("Could not open/create file: %v", err)
	}
	f.Close()
	metricsPath := path.Join(tempDir, "trafficd.prom")
	if !FileExists(configPath) {
		t.Fatal("File doesn't exist when it should")
	}
	if FileExists(metricsPath) {
		t.Fatal("File exists when it shouldn't")
	}
}

// TestAppDataDir tests the application directory on the current OS
func TestAppDataDir(t *testing.T) {
	t.Run("Home Directory", func(t *testing.T) {
		if runtime.GOOS == "windows" || runtime.GOOS == "darwin" || runtime.GOOS == "plan9" {
			t.Skipf("No dot directory on %s", runtime.GOOS)
		}
		dir := AppDataDir("trafficd", false)
		if filepath.Base(dir) != ".trafficd" {
			t.Errorf("Unexpected directory: %s", dir)
		}
	})
	t.Run("Leading Dot", func(t *testing.T) {
		if AppDataDir(".trafficd", false) != AppDataDir("trafficd", false) {
			t.Errorf("Leading dot should be ignored: %s", AppDataDir(".trafficd", false))
		}
	})
	t.Run("Empty", func(t *testing.T) {
		if dir := AppDataDir("", false); dir != "." {
			t.Errorf("Unexpected directory: %s", dir)
		}
	})
}
