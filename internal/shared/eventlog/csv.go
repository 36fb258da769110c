package eventlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

var header = []string{"timestamp", "order_id", "stage", "outcome", "error"}

// CSVSink appends outcome records to a CSV file. The file is opened per write
// so operators can rotate or truncate it while the worker runs.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create outcome log dir: %w", err)
		}
	}
	return &CSVSink{path: path}, nil
}

// Record appends one row, writing the header first when the file is new or empty.
func (s *CSVSink) Record(_ context.Context, rec orders.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open outcome log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat outcome log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}

	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	if err := w.Write([]string{
		ts.UTC().Format(time.RFC3339),
		rec.OrderID,
		string(rec.Stage),
		string(rec.Outcome),
		rec.Error,
	}); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write outcome log: %w", err)
	}
	return nil
}
