package logger_test

import (
	"testing"

	"github.com/bundleforge/bundleforge/internal/logger"
)

func TestDeferLogOrdersErrorsBeforeWarnings(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "first warning"})
	log.AddMsg(logger.Msg{Kind: logger.Error, Text: "first error"})
	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "second warning"})

	if !log.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}

	msgs := log.Done()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Kind != logger.Error {
		t.Fatalf("expected first message to be the error, got %v", msgs[0])
	}
	if msgs[1].Text != "first warning" || msgs[2].Text != "second warning" {
		t.Fatalf("expected warnings to keep arrival order, got %v, %v", msgs[1], msgs[2])
	}
}

func TestDeferLogNoErrors(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "just a warning"})
	if log.HasErrors() {
		t.Fatal("expected HasErrors to be false")
	}
}
