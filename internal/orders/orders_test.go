package orders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bakerychat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var breadAndCake = []models.MenuItem{{Name: "Bread", Price: 5.0}, {Name: "Cake", Price: 20.0}}

func TestMatch_TableOrderNotInputOrder(t *testing.T) {
	lines, total := Match("I'd like a cake and bread please", breadAndCake)

	assert.Equal(t, []models.OrderLine{{ItemName: "Bread", Price: 5.0}, {ItemName: "Cake", Price: 20.0}}, lines)
	assert.Equal(t, 25.0, total)
}

func TestMatch_NoOrder(t *testing.T) {
	lines, total := Match("what are your hours", breadAndCake)

	assert.Nil(t, lines)
	assert.Zero(t, total)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		menu  []models.MenuItem
		want  []string
		total float64
	}{
		{"case insensitive", "BREAD!", breadAndCake, []string{"Bread"}, 5},
		{"substring without word boundary", "two pancakes", breadAndCake, []string{"Cake"}, 20},
		{"mentioned twice counts once", "bread bread bread", breadAndCake, []string{"Bread"}, 5},
		{"duplicates matched independently", "cake", []models.MenuItem{{Name: "Cake", Price: 1}, {Name: "cake", Price: 2}}, []string{"Cake", "cake"}, 3},
		{"blank names never match", "anything", []models.MenuItem{{Name: "", Price: 9}, {Name: "  ", Price: 9}}, nil, 0},
		{"empty menu", "bread", nil, nil, 0},
		{"multi word item", "a loaf of sourdough bread", []models.MenuItem{{Name: "Sourdough Bread", Price: 7}}, []string{"Sourdough Bread"}, 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines, total := Match(tc.input, tc.menu)
			var names []string
			for _, line := range lines {
				names = append(names, line.ItemName)
			}
			assert.Equal(t, tc.want, names)
			assert.InDelta(t, tc.total, total, 1e-9)
		})
	}
}

func TestMatch_EveryNamedItemFoundInsideArbitraryText(t *testing.T) {
	menu := []models.MenuItem{{Name: "Rye", Price: 1}, {Name: "Éclair", Price: 2}, {Name: "Baguette", Price: 3}}
	for _, item := range menu {
		for _, wrap := range []string{"%s", "xx%sxx", "I want %s now", "%s?"} {
			input := strings.Replace(wrap, "%s", strings.ToUpper(item.Name), 1)
			lines, _ := Match(input, menu)
			assert.Contains(t, lines, models.OrderLine{ItemName: item.Name, Price: item.Price}, input)
		}
	}
}

func TestDetect(t *testing.T) {
	order, ok := Detect("cake", breadAndCake)
	assert.True(t, ok)
	assert.Equal(t, 20.0, order.Total())

	_, ok = Detect("hello", breadAndCake)
	assert.False(t, ok)
}

func TestConfirmation(t *testing.T) {
	order, _ := Detect("I'd like a cake and bread please", breadAndCake)

	reply := Confirmation(order)

	assert.Equal(t, "Your order:\n\n- Bread: $5.00\n- Cake: $20.00\n\nTotal: $25.00", reply)
	assert.Contains(t, reply, "Total: $25.00")
}

func TestLedger_AppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order", "order.csv")
	ledger := NewLedger(path)
	order := models.Order{Lines: []models.OrderLine{{ItemName: "Bread", Price: 5}, {ItemName: "Cake", Price: 20}}}

	require.NoError(t, ledger.Append(order))
	require.NoError(t, ledger.Append(order))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Item,Price\nBread,5.0\nCake,20.0\nBread,5.0\nCake,20.0\n", string(raw))
}

func TestLedger_AppendIsNotDeduplicating(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "order.csv"))
	order := models.Order{Lines: []models.OrderLine{{ItemName: "Pastry", Price: 3}, {ItemName: "Bread", Price: 5}}}

	require.NoError(t, ledger.Append(order))
	before, err := ledger.Lines()
	require.NoError(t, err)
	require.NoError(t, ledger.Append(order))
	require.NoError(t, ledger.Append(order))
	after, err := ledger.Lines()
	require.NoError(t, err)

	assert.Len(t, after, len(before)+2*len(order.Lines))
	assert.Equal(t, append(append(before, order.Lines...), order.Lines...), after)
}

func TestLedger_RejectsEmptyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.csv")

	err := NewLedger(path).Append(models.Order{})

	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLedger_LinesOnMissingLog(t *testing.T) {
	lines, err := NewLedger(filepath.Join(t.TempDir(), "none.csv")).Lines()

	require.NoError(t, err)
	assert.Empty(t, lines)
}
