package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchd/internal/config"
	"github.com/banshee-data/touchd/internal/device"
)

func writeSyntheticDump(t *testing.T, reports int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synthetic.tdmp")
	w, err := device.CreateDump(path)
	require.NoError(t, err)

	src := device.NewSyntheticSource(device.DefaultSyntheticRows, device.DefaultSyntheticColumns)
	for i := 0; i < reports; i++ {
		report, err := src.ReadReport(context.Background())
		require.NoError(t, err)
		require.NoError(t, w.Write(report))
	}
	require.NoError(t, w.Write([]byte{0xff}))
	require.NoError(t, w.Close())
	return path
}

func TestCheckDump(t *testing.T) {
	path := writeSyntheticDump(t, 10)

	src, err := openInput(path)
	require.NoError(t, err)
	defer src.Close()

	appConfig, err := config.EmptyTuningConfig().ApplicationConfig()
	require.NoError(t, err)

	sum, err := check(context.Background(), src, appConfig)
	require.NoError(t, err)

	assert.Equal(t, uint64(11), sum.Reports)
	assert.Equal(t, uint64(9), sum.Frames, "the first report carries metadata")
	assert.Equal(t, uint64(1), sum.ParseErrors)
	assert.GreaterOrEqual(t, sum.MaxContacts, 2, "two simulated fingers")
	assert.GreaterOrEqual(t, sum.Identities, sum.MaxContacts)
	assert.LessOrEqual(t, sum.Stable, sum.Contacts)
}

func TestCheckSourceError(t *testing.T) {
	src := device.NewMockSource([]byte{1})
	src.Errors[0] = errors.New("unplugged")

	appConfig, err := config.EmptyTuningConfig().ApplicationConfig()
	require.NoError(t, err)

	_, err = check(context.Background(), src, appConfig)
	assert.ErrorContains(t, err, "unplugged")
}

func TestTableData(t *testing.T) {
	data := tableData("x.tdmp", Summary{Reports: 5, Frames: 4, Contacts: 8, Stable: 6, Identities: 2})
	require.Len(t, data, 2)
	assert.Equal(t, len(data[0]), len(data[1]))
	assert.Equal(t, "x.tdmp", data[1][0])
	assert.Equal(t, "75.0", data[1][5])
}

func TestStableRatioEmpty(t *testing.T) {
	assert.Zero(t, Summary{}.StableRatio())
}
