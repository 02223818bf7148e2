package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestProgress_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "bench", 100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				p.Add(1)
			}
		}()
	}
	wg.Wait()
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "100%") || !strings.Contains(out, "(100/100") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestProgress_Unbounded(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "ops", 0)
	p.Add(7)
	p.Finish()

	if !strings.Contains(buf.String(), "ops 7 ops") {
		t.Errorf("output = %q", buf.String())
	}
}
