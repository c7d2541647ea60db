package renderlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendAndRead(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "nested", "renders.jsonl"))

	if got, err := l.ReadAll(); err != nil || got != nil {
		t.Fatalf("missing log should be empty, got %v, %v", got, err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Append(Entry{Time: at, RenderID: "a", Niche: "cats", Title: "Cats", DurationSec: 20, Output: "out/a.mp4"}); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(Entry{RenderID: "b", Title: "Dogs", DurationSec: 15, Output: "out/b.mp4"}); err != nil {
		t.Fatal(err)
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !got[0].Time.Equal(at) || got[0].Niche != "cats" {
		t.Errorf("unexpected first entry %+v", got[0])
	}
	if got[1].Time.IsZero() {
		t.Error("Append should stamp missing time")
	}

	data, _ := os.ReadFile(l.Path())
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("expected one line per entry, got %d lines", n)
	}
	if !strings.Contains(string(data), `"render_id":"a"`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestConcurrentAppend(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "renders.jsonl"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(Entry{RenderID: "x", Title: "t"})
		}()
	}
	wg.Wait()

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("interleaved lines: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 entries, got %d", len(got))
	}
}

func TestLast(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "renders.jsonl"))
	for _, id := range []string{"1", "2", "3"} {
		l.Append(Entry{RenderID: id})
	}
	got, err := l.Last(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RenderID != "2" || got[1].RenderID != "3" {
		t.Errorf("Last(2) = %+v", got)
	}
}

func TestCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renders.jsonl")
	os.WriteFile(path, []byte("{\"render_id\":\"ok\"}\nnot json\n"), 0644)
	got, err := Open(path).ReadAll()
	if err == nil || !strings.Contains(err.Error(), ":2:") {
		t.Errorf("expected error on line 2, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected entries before the bad line, got %d", len(got))
	}
}
