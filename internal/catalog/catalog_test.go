package catalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"bakerychat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "data.csv"))

	profile, err := c.Load()

	assert.NoError(t, err)
	assert.Equal(t, models.DefaultProfile(), profile)
}

func TestLoad_MalformedFileWarnsAndReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Item,Price\nBread,5.0,extra\n"), 0o644))

	profile, err := New(path).Load()

	require.Error(t, err)
	assert.True(t, IsReadError(err))
	assert.Equal(t, models.DefaultProfile(), profile)
}

func TestLoad_BadPriceIsReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Item,Price\nBread,cheap\n"), 0o644))

	_, err := New(path).Load()

	assert.True(t, IsReadError(err))
}

func TestLoad_ReadsHeaderFromFirstRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "Item,Price,Working Hours,Contact Info,Location\n" +
		"Baguette,4.5,7 AM - 3 PM,555-0100,1 Rue Main\n" +
		"Croissant,2.25,7 AM - 3 PM,555-0100,1 Rue Main\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profile, err := New(path).Load()

	require.NoError(t, err)
	assert.Equal(t, []models.MenuItem{{Name: "Baguette", Price: 4.5}, {Name: "Croissant", Price: 2.25}}, profile.Items)
	assert.Equal(t, models.ProfileHeader{WorkingHours: "7 AM - 3 PM", ContactInfo: "555-0100", Location: "1 Rue Main"}, profile.Header)
}

func TestSave_BroadcastsHeaderOnEveryRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "data.csv")
	c := New(path)

	profile, err := c.Load()
	require.NoError(t, err)
	require.NoError(t, c.Save(profile))

	rows := readRows(t, path)
	require.Len(t, rows, 1+len(profile.Items))
	assert.Equal(t, columns, rows[0])
	for i, row := range rows[1:] {
		assert.Equal(t, profile.Items[i].Name, row[0])
		assert.Equal(t, []string{"8 AM - 6 PM", "123-456-7890", "123 Bakery Street"}, row[2:])
	}
	assert.Equal(t, "5.0", rows[1][1])
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	c := New(path)
	profile := models.BakeryProfile{
		Items:  []models.MenuItem{{Name: "Rye, dark", Price: 6.75}, {Name: "Scone", Price: 0}},
		Header: models.ProfileHeader{WorkingHours: "9-5", ContactInfo: "x@y.z", Location: "Here"},
	}

	require.NoError(t, c.Save(profile))
	loaded, err := c.Load()

	require.NoError(t, err)
	assert.Equal(t, profile, loaded)
}

func TestSave_EmptyProfileKeepsHeaderRowOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	c := New(path)

	require.NoError(t, c.Save(models.BakeryProfile{Header: models.ProfileHeader{Location: "gone"}}))
	loaded, err := c.Load()

	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
	assert.Equal(t, models.DefaultProfile().Header, loaded.Header)
}

func TestSave_UnwritableDirectoryIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := New(filepath.Join(blocker, "data.csv")).Save(models.DefaultProfile())

	var pe *models.PersistenceError
	assert.ErrorAs(t, err, &pe)
}
