package cli

import (
	"bytes"
	"testing"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("applied %d migrations", 2)
	p.Error("failed")
	p.Warning("dirty")
	p.Info("version %d", 1)

	want := "✓ applied 2 migrations\n✗ failed\n⚠ dirty\nℹ version 1\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}
