package orders

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"bakerychat/internal/models"

	"github.com/pkg/errors"
)

var ledgerColumns = []string{"Item", "Price"}

// Ledger is the append-only order log
type Ledger struct {
	path string
	mu   sync.Mutex
}

// NewLedger creates a ledger writing to the CSV file at path
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the location of the order log
func (l *Ledger) Path() string {
	return l.path
}

// Append writes one row per order line. The header is written only when the
// file does not exist yet. Appends are never deduplicated.
func (l *Ledger) Append(order models.Order) error {
	if order.IsEmpty() {
		return errors.New("cannot record an empty order")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
	}

	_, statErr := os.Stat(l.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
	}

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(ledgerColumns); err != nil {
			f.Close()
			return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
		}
	}
	for _, line := range order.Lines {
		if err := writer.Write([]string{line.ItemName, models.FormatCSVPrice(line.Price)}); err != nil {
			f.Close()
			return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &models.PersistenceError{Op: "append order", Path: l.path, Err: err}
	}
	return nil
}

// Lines reads every recorded order line in write order. A missing log is empty.
func (l *Ledger) Lines() ([]models.OrderLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.OrderLine{}, nil
		}
		return nil, errors.Wrap(err, "open order log")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(ledgerColumns)

	lines := []models.OrderLine{}
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read order log")
		}
		if header {
			header = false
			continue
		}
		price, err := models.ParseCSVPrice(row[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid price for %q", row[0])
		}
		lines = append(lines, models.OrderLine{ItemName: row[0], Price: price})
	}
	return lines, nil
}
