package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoggerFunctions(t *testing.T) {
	Init("invalid") // should default to info
	if log == nil {
		t.Fatal("log not initialized")
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}
	// Avoid os.Exit on Fatal
	log.ExitFunc = func(int) {}
	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	Debugf("%s", "debugf")
	Infof("%s", "infof")
	Warnf("%s", "warnf")
	Errorf("%s", "errorf")
	Fatal("fatal")
	Fatalf("%s", "fatalf")

	out := buf.String()
	if strings.Contains(out, "debugf") {
		t.Fatal("debug output should be filtered at info level")
	}
	if !strings.Contains(out, "warnf") || !strings.Contains(out, "fatalf") {
		t.Fatalf("missing expected output: %s", out)
	}
}

func TestWithFields(t *testing.T) {
	Init("debug")
	defer Init("warn")
	var buf bytes.Buffer
	SetOutput(&buf)

	WithFields(map[string]interface{}{"files": 3, "skipped": 1}).Debug("Scan complete")

	out := buf.String()
	if !strings.Contains(out, "Scan complete") || !strings.Contains(out, "files=3") || !strings.Contains(out, "skipped=1") {
		t.Fatalf("expected structured fields in output: %s", out)
	}
}
