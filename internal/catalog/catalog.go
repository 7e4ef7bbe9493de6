package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bakerychat/internal/models"

	"github.com/pkg/errors"
)

// Column names of the persisted menu table
const (
	ColumnItem         = "Item"
	ColumnPrice        = "Price"
	ColumnWorkingHours = "Working Hours"
	ColumnContactInfo  = "Contact Info"
	ColumnLocation     = "Location"
)

var columns = []string{ColumnItem, ColumnPrice, ColumnWorkingHours, ColumnContactInfo, ColumnLocation}

// Catalog loads and saves the bakery menu table
type Catalog struct {
	path string
	mu   sync.Mutex
}

// New creates a catalog backed by the CSV file at path
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the location of the menu table
func (c *Catalog) Path() string {
	return c.path
}

// Load reads the menu table. A missing file yields the default profile and no
// error. An unreadable file yields the default profile and a *CatalogReadError.
func (c *Catalog) Load() (models.BakeryProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultProfile(), nil
		}
		return models.DefaultProfile(), &CatalogReadError{Path: c.path, Err: err}
	}
	defer f.Close()

	profile, err := decode(f)
	if err != nil {
		return models.DefaultProfile(), &CatalogReadError{Path: c.path, Err: err}
	}
	return profile, nil
}

// Save overwrites the menu table with one row per item. The header fields are
// repeated on every row.
func (c *Catalog) Save(profile models.BakeryProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return &models.PersistenceError{Op: "save menu", Path: c.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".menu-*.csv")
	if err != nil {
		return &models.PersistenceError{Op: "save menu", Path: c.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, profile); err != nil {
		tmp.Close()
		return &models.PersistenceError{Op: "save menu", Path: c.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.PersistenceError{Op: "save menu", Path: c.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return &models.PersistenceError{Op: "save menu", Path: c.path, Err: err}
	}
	return nil
}

func decode(r io.Reader) (models.BakeryProfile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return models.BakeryProfile{}, errors.Wrap(err, "parse menu table")
	}
	if len(records) == 0 {
		return models.BakeryProfile{}, errors.New("menu table has no header row")
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	itemCol, ok := index[ColumnItem]
	if !ok {
		return models.BakeryProfile{}, errors.Errorf("missing %q column", ColumnItem)
	}
	priceCol, ok := index[ColumnPrice]
	if !ok {
		return models.BakeryProfile{}, errors.Errorf("missing %q column", ColumnPrice)
	}

	rows := records[1:]
	profile := models.BakeryProfile{Items: make([]models.MenuItem, 0, len(rows))}
	for n, row := range rows {
		price, err := models.ParseCSVPrice(row[priceCol])
		if err != nil {
			return models.BakeryProfile{}, errors.Wrapf(err, "row %d: invalid price", n+2)
		}
		profile.Items = append(profile.Items, models.MenuItem{Name: row[itemCol], Price: price})
	}

	if len(rows) == 0 {
		// Nothing to read the header fields from.
		profile.Header = models.DefaultProfile().Header
		return profile, nil
	}
	first := rows[0]
	field := func(name string) string {
		if i, ok := index[name]; ok {
			return first[i]
		}
		return ""
	}
	profile.Header = models.ProfileHeader{
		WorkingHours: field(ColumnWorkingHours),
		ContactInfo:  field(ColumnContactInfo),
		Location:     field(ColumnLocation),
	}
	return profile, nil
}

func encode(w io.Writer, profile models.BakeryProfile) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, item := range profile.Items {
		row := []string{
			item.Name,
			models.FormatCSVPrice(item.Price),
			profile.Header.WorkingHours,
			profile.Header.ContactInfo,
			profile.Header.Location,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
