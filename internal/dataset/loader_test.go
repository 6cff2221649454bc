package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/waterdash/pkg/models"
)

const sampleCSV = `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,True,False,2024-03-01 08:00:00,5,50
B,u2,d2,False,True,2024-03-01T09:30:00Z,3.5,30
C,u1,d1,true,false,2024-02-28,1,51
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consumes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ParsesRows(t *testing.T) {
	path := writeCSV(t, sampleCSV)

	ds, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, path, ds.Source())

	first := ds.At(0)
	assert.Equal(t, models.Reading{
		ID:           "A",
		UserID:       "u1",
		DeviceID:     "d1",
		IsAtHome:     true,
		IsAnomalous:  false,
		Time:         time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Consume:      5,
		TotalConsume: 50,
	}, first)

	assert.Equal(t, 3.5, ds.At(1).Consume)
	assert.True(t, ds.At(1).IsAnomalous)
	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), ds.At(2).Time)
}

func TestLoad_PreservesOrderAndBounds(t *testing.T) {
	ds, err := Load(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	ids := []string{}
	for _, r := range ds.Readings() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)

	min, max := ds.Bounds()
	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), min)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), max)

	emin, emax := ds.EpochBounds()
	assert.Equal(t, float64(min.Unix()), emin)
	assert.Equal(t, float64(max.Unix()), emax)
}

func TestLoad_Distinct(t *testing.T) {
	ds, err := Load(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2"}, ds.Distinct(models.ColumnUserID))
	assert.Equal(t, []string{"true", "false"}, ds.Distinct(models.ColumnIsAtHome))
}

func TestLoad_KeepsLiteralNAValues(t *testing.T) {
	ds, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
NA,NaN,d1,true,false,2024-03-01,1,1
`))
	require.NoError(t, err)
	assert.Equal(t, "NA", ds.At(0).ID)
	assert.Equal(t, "NaN", ds.At(0).UserID)
}

func TestLoad_HeaderOnly(t *testing.T) {
	ds, err := Load(writeCSV(t, "id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestLoad_ExtraColumnsIgnored(t *testing.T) {
	ds, err := Load(writeCSV(t, `note,id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
x,A,u1,d1,true,false,2024-03-01,1,10
`))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "A", ds.At(0).ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestLoad_MissingColumn(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,time,consume,totalConsume
A,u1,d1,true,2024-03-01,1,10
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "isAnomalous")
}

func TestLoad_DuplicateColumn(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume,id
A,u1,d1,true,false,2024-03-01,1,10,A
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), `duplicate column "id"`)
}

func TestLoad_RaggedRowIsParseError(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,true,false,2024-03-01,1,10
B,u1,d1,true
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.False(t, errors.Is(err, ErrIO))
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := Load(writeCSV(t, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestLoad_BadTimestamp(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,true,false,2024-03-01,1,10
B,u1,d1,true,false,yesterday,1,10
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "row 3")
}

func TestLoad_BadNumber(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,true,false,2024-03-01,lots,10
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestLoad_BadBool(t *testing.T) {
	_, err := Load(writeCSV(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,maybe,false,2024-03-01,1,10
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseTime_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 1, 8, 15, 30, 0, time.UTC)
	for _, s := range []string{
		"2024-03-01T08:15:30Z",
		"2024-03-01T08:15:30",
		"2024-03-01 08:15:30",
		"2024-03-01T10:15:30+02:00",
	} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	got, err := ParseTime("2024-03-01 08:15:30.250")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, got.Sub(want))
}

func TestEpochRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 15, 30, 123456000, time.UTC)
	assert.True(t, ts.Equal(EpochToTime(Epoch(ts))))

	whole := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, whole.Equal(EpochToTime(float64(whole.Unix()))))
}

func TestCache_MemoizesByPath(t *testing.T) {
	var calls int32
	cache := NewCache(func(path string) (*Dataset, error) {
		atomic.AddInt32(&calls, 1)
		return New(path, nil), nil
	})

	a, err := cache.Get("a.csv")
	require.NoError(t, err)
	again, err := cache.Get("a.csv")
	require.NoError(t, err)
	_, err = cache.Get("b.csv")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, cache.Len())
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	var calls int32
	cache := NewCache(func(path string) (*Dataset, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, ErrIO
		}
		return New(path, nil), nil
	})

	_, err := cache.Get("a.csv")
	require.ErrorIs(t, err, ErrIO)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Get("a.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ConcurrentGets(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	cache := NewCache(nil)

	var wg sync.WaitGroup
	results := make([]*Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.Get(path)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
	assert.Equal(t, 1, cache.Len())
}
