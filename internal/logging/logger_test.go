package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/royalcat/geolabels/internal/logging"
)

func TestPlainFormatter(t *testing.T) {
	f := &logging.PlainFormatter{
		TimestampFormat: "2006-01-02",
		LevelDesc:       []string{"PANC", "FATL", "ERRO", "WARN", "INFO", "DEBG", "TRAC"},
	}

	entry := &logrus.Entry{
		Time:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "skipping feature",
		Data:    logrus.Fields{"index": 3, "component": "pipeline"},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatal(err)
	}

	expected := "WARN 2024-03-01 skipping feature component=pipeline index=3\n"
	if string(out) != expected {
		t.Fatalf("expected %q, got %q", expected, string(out))
	}
}

func TestCreateLoggerFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "geolabels.log")

	cfg := logging.Config{
		Debug:     true,
		Filename:  filename,
		MaxSizeMB: 1,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	logger := cfg.CreateLogger(logrus.New(), false)
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger.WithField("points", 2).Debug("feature labeled")

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "DEBG") || !strings.HasSuffix(string(data), "feature labeled points=2\n") {
		t.Fatalf("unexpected log file contents: %q", string(data))
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := logging.Config{MaxBackups: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_backups")
	}
}
