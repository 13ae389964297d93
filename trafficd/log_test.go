package trafficd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestInitLogger checks that logs land in the logfile with the subsystem tag
func TestInitLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	config := Config{
		DefaultLogDir:  true,
		LogFileDir:     dir,
		MaxLogFileSize: 1,
		LogLevel:       "INFO",
	}
	logger, err := InitLogger(&config)
	if err != nil {
		t.Fatalf("Could not initialize logger: %v", err)
	}
	sub := NewSubLogger(&logger, "CTRL")
	sub.SubLogger.Info().Msg("Entered RED")
	sub.SubLogger.Debug().Msg("filtered out")
	b, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("Could not read logfile: %v", err)
	}
	if !strings.Contains(string(b), `"subsystem":"CTRL"`) || !strings.Contains(string(b), "Entered RED") {
		t.Errorf("Unexpected logfile content: %s", b)
	}
	if strings.Contains(string(b), "filtered out") {
		t.Errorf("Debug message written at INFO level")
	}
}

// TestInitLoggerMissingDir checks that a non default log directory is not created
func TestInitLoggerMissingDir(t *testing.T) {
	config := Config{
		LogFileDir: filepath.Join(t.TempDir(), "missing"),
		LogLevel:   "INFO",
	}
	if _, err := InitLogger(&config); err == nil {
		t.Error("Expected an error for a missing log directory")
	}
}

// TestModdedFileWriterRotation writes past the size limit and checks the rotation order
func TestModdedFileWriterRotation(t *testing.T) {
	dir := t.TempDir()
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		t.Fatalf("Could not open logfile: %v", err)
	}
	w := &moddedFileWriter{
		File:         f,
		maxFileSize:  10,
		maxFiles:     3,
		fileNameRoot: logFileRoot,
		fileExt:      logFileExt,
		pathToFile:   dir,
	}
	defer func() { w.File.Close() }()
	expected := []string{"logfile.log", "logfile1.log", "logfile2.log", "logfile.log"}
	for i, name := range expected {
		if _, err := w.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Could not write: %v", err)
		}
		if filepath.Base(w.File.Name()) != name {
			t.Errorf("Write %v: expected %s, received %s", i, name, filepath.Base(w.File.Name()))
		}
	}
}

func TestFormatLevel(t *testing.T) {
	if !strings.Contains(formatLevel("warn"), "[WARN]") {
		t.Errorf("Unexpected level label: %q", formatLevel("warn"))
	}
}
