package webhook

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/agentroi/runrate/pkg/domain/alert"
)

// DeadLetterStore appends failed alert deliveries to a JSONL file.
type DeadLetterStore struct {
	path string
	mu   sync.Mutex
}

// NewDeadLetterStore creates a dead letter store at the given path.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path}
}

// Append writes a dead letter entry to the JSONL file.
func (s *DeadLetterStore) Append(dl alert.DeadLetter) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return err
}

// ReadAll returns all dead letter entries in append order. Blank and
// malformed lines are skipped.
func (s *DeadLetterStore) ReadAll() ([]alert.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []alert.DeadLetter{}, nil
		}
		return nil, fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	entries := []alert.DeadLetter{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var dl alert.DeadLetter
		if err := json.Unmarshal(line, &dl); err != nil {
			continue
		}
		entries = append(entries, dl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dead letters: %w", err)
	}
	return entries, nil
}
