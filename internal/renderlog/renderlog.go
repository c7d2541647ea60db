// Package renderlog keeps an append-only JSON Lines record of finished renders.
package renderlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one line of the log.
type Entry struct {
	Time        time.Time `json:"time"`
	RenderID    string    `json:"render_id"`
	Niche       string    `json:"niche,omitempty"`
	Title       string    `json:"title"`
	DurationSec float64   `json:"duration_sec"`
	Output      string    `json:"output"`
}

// Log appends entries to a file. It is safe for concurrent use within one process.
type Log struct {
	path string
	mu   sync.Mutex
}

func Open(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes e as a single line, stamping Time if it is zero.
func (l *Log) Append(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(line)
	return err
}

// ReadAll returns every entry in file order. A missing file is an empty log.
func (l *Log) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("%s:%d: %w", l.path, n, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// Last returns up to n most recent entries, newest last.
func (l *Log) Last(n int) ([]Entry, error) {
	all, err := l.ReadAll()
	if err != nil || len(all) <= n {
		return all, err
	}
	return all[len(all)-n:], nil
}
