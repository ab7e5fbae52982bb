package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"prod", "Production", "dev", ""} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		prod := mode == "prod" || mode == "Production"
		if got := log.Core().Enabled(zap.DebugLevel); got == prod {
			t.Errorf("New(%q) debug enabled = %v", mode, got)
		}
	}
}
