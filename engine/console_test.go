package engine

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPrinter struct {
	lines []string
}

func (p *recordingPrinter) Log(s string)   { p.lines = append(p.lines, "log:"+s) }
func (p *recordingPrinter) Warn(s string)  { p.lines = append(p.lines, "warn:"+s) }
func (p *recordingPrinter) Error(s string) { p.lines = append(p.lines, "error:"+s) }

func TestEnableConsole(t *testing.T) {
	_, c := newTestContext(t)

	p := &recordingPrinter{}
	must(t, c.EnableConsole(p))
	run(t, c, `console.log("hello", 1); console.warn("careful"); console.error("bad")`)

	want := []string{"log:hello 1", "warn:careful", "error:bad"}
	if len(p.lines) != len(want) {
		t.Fatalf("lines = %v, want %v", p.lines, want)
	}
	for i := range want {
		if p.lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, p.lines[i], want[i])
		}
	}
}

func TestZapPrinter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, c := newTestContext(t)

	must(t, c.EnableConsole(ZapPrinter{L: zap.New(core)}))
	run(t, c, `console.warn("through zap")`)

	entries := logs.FilterMessage("through zap").All()
	if len(entries) != 1 || entries[0].Level != zap.WarnLevel {
		t.Errorf("entries = %v", entries)
	}
}
