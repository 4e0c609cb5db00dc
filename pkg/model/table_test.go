package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRowNormalizesColumnSet(t *testing.T) {
	table := NewTable([]string{"id", "name"})
	table.AppendRow(Row{"id": "1"})

	require.Equal(t, 1, table.RowCount())
	require.Contains(t, table.Rows[0], "name")
	assert.Nil(t, table.Rows[0]["name"])
}

func TestAppendRowDropsUnknownColumns(t *testing.T) {
	table := NewTable([]string{"id"})
	table.AppendRow(Row{"id": "1", "stray": "x"})

	require.Equal(t, 1, table.RowCount())
	assert.NotContains(t, table.Rows[0], "stray")
}

func TestCloneIsIndependent(t *testing.T) {
	table := NewTable([]string{"name"})
	table.AppendRow(Row{"name": "Alice"})

	clone := table.Clone()
	clone.Rows[0]["name"] = "Bob"

	assert.Equal(t, "Alice", table.Rows[0]["name"])
	assert.Equal(t, "Bob", clone.Rows[0]["name"])
}

func TestColumnIndexIsCaseInsensitive(t *testing.T) {
	table := NewTable([]string{"CustomerID", "Name"})

	assert.Equal(t, 0, table.ColumnIndex("customerid"))
	assert.Equal(t, 1, table.ColumnIndex(" NAME "))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
	assert.True(t, table.HasColumn("name"))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("   "))
	assert.False(t, IsNull("x"))
	assert.False(t, IsNull(int64(0)))
	assert.False(t, IsNull(false))
}

func TestCellString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "abc", CellString("abc"))
	assert.Equal(t, "42", CellString(int64(42)))
	assert.Equal(t, "2024-03-01T12:00:00Z", CellString(ts))
}
