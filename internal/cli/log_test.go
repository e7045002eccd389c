package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("prepared") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("wrapper reused", "name", "alpha") }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("wrapper reused", "name", "alpha") }, true},
		{"warn at info level", LogInfo, func(l *log.Logger) { l.Warn("repairing wrapper") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug output missing after SetLogLevel: %q", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.done("Rendered 3 dependencies")

	out := buf.String()
	if !strings.Contains(out, "Rendered 3 dependencies (") {
		t.Errorf("progress.done() output = %q, want message with duration", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	custom := newLogger(&bytes.Buffer{}, LogInfo)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

// The root command attaches the CLI logger before any subcommand runs.
func TestRootCommandAttachesLogger(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	var got *log.Logger
	root.AddCommand(&cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = loggerFromContext(cmd.Context())
			return nil
		},
	})
	root.SetArgs([]string{"probe"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != c.Logger {
		t.Error("subcommand context does not carry the CLI logger")
	}
}
