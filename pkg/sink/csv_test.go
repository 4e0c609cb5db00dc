package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

func TestCSVSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepared", "customers.csv")

	table := model.NewTable([]string{"id", "name", "joined"})
	table.AppendRow(model.Row{
		"id":     int64(1),
		"name":   "Alice",
		"joined": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	table.AppendRow(model.Row{"id": int64(2), "name": nil})

	s := NewCSVSink(path, zap.NewNop())
	require.NoError(t, s.Write(context.Background(), "customers", table))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "id,name,joined\n" +
		"1,Alice,2024-03-01T00:00:00Z\n" +
		"2,,\n"
	assert.Equal(t, want, string(data))
}

func TestCSVSinkDestination(t *testing.T) {
	s := NewCSVSink("out/x.csv", zap.NewNop())
	assert.Equal(t, "out/x.csv", s.Destination())
}

func TestForOutputFile(t *testing.T) {
	out := config.OutputSpec{Path: filepath.Join(t.TempDir(), "x.csv")}
	dest, err := ForOutput(context.Background(), out, nil, zap.NewNop())
	require.NoError(t, err)
	defer dest.Close()

	_, isCSV := dest.(*CSVSink)
	assert.True(t, isCSV)
}

func TestForOutputTableRequiresPostgresConfig(t *testing.T) {
	out := config.OutputSpec{Table: "customers_prepared"}
	_, err := ForOutput(context.Background(), out, nil, zap.NewNop())
	assert.Error(t, err)
}
