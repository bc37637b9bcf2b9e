package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// Header is the first CSV row.
var Header = []string{"Timestamp", "Event", "Duration(s)"}

// CSV appends events to a comma-separated file.
type CSV struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewCSV truncates path and writes the header.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}

	c := &CSV{f: f, w: csv.NewWriter(f)}
	if err := c.writeRow(Header); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Write appends one row and flushes it.
func (c *CSV) Write(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeRow([]string{e.ClockText(), e.Name, e.DurationText()})
}

func (c *CSV) writeRow(row []string) error {
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Close closes the file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.f.Close()
}
