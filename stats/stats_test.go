package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchorivasf/tidyacoustics/models"
)

func record(name string, sizeBytes int64, modified time.Time) models.FileRecord {
	rec := models.FileRecord{
		Path:       "/corpus/" + name,
		Name:       name,
		SizeBytes:  sizeBytes,
		ModifiedAt: modified,
	}
	if sensor, ts, ok := parseForTest(name); ok {
		rec.SensorID = &sensor
		rec.Timestamp = &ts
	}
	return rec
}

// parseForTest mirrors the scanner convention without importing it.
func parseForTest(name string) (string, time.Time, bool) {
	if len(name) < 20 || name[4] != '_' {
		return "", time.Time{}, false
	}
	ts, err := time.Parse("20060102_150405", name[5:20])
	if err != nil {
		return "", time.Time{}, false
	}
	return name[:4], ts, true
}

const mb = int64(models.BytesPerMB)

var (
	d1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	d2 = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
)

func scenarioA() []models.FileRecord {
	var recs []models.FileRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, record("AM01_20240301_1200"+string(rune('0'+i))+"0.wav", 5*mb, d1))
	}
	for i := 0; i < 5; i++ {
		recs = append(recs, record("AM01_20240302_1200"+string(rune('0'+i))+"0.wav", 1*mb, d2))
	}
	return recs
}

func TestThresholdIsExactMedian(t *testing.T) {
	cases := []struct {
		name  string
		sizes []int64
		want  float64
	}{
		{"single", []int64{3 * mb}, 3},
		{"odd", []int64{1 * mb, 9 * mb, 5 * mb}, 5},
		{"even mid mean", []int64{1 * mb, 2 * mb, 4 * mb, 8 * mb}, 3},
		{"all equal", []int64{2 * mb, 2 * mb, 2 * mb, 2 * mb}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var recs []models.FileRecord
			for i, s := range tc.sizes {
				recs = append(recs, record("AM01_20240301_12000"+string(rune('0'+i))+".wav", s, d1))
			}
			assert.InDelta(t, tc.want, ThresholdMB(recs), 1e-9)
		})
	}
}

func TestScenarioA(t *testing.T) {
	days, threshold := Aggregate(scenarioA())

	// Median of {5x5MB, 5x1MB} is the midpoint of the two middle values.
	assert.InDelta(t, 3.0, threshold, 1e-9)

	require.Len(t, days, 2)
	assert.Equal(t, models.DateOf(d1), days[0].Date)
	assert.InDelta(t, 5.0, days[0].MeanSizeMB, 1e-9)
	assert.Equal(t, 5, days[0].FileCount)
	assert.InDelta(t, 1.0, days[1].MeanSizeMB, 1e-9)

	corrupted := CorruptedDates(days, threshold)
	require.Len(t, corrupted, 1)
	assert.Equal(t, models.DateOf(d2), corrupted[0])
}

func TestStrictInequalityAtThreshold(t *testing.T) {
	// Every file is 2MB: the median equals every day mean, so no day is
	// flagged.
	recs := []models.FileRecord{
		record("AM01_20240301_120000.wav", 2*mb, d1),
		record("AM01_20240302_120000.wav", 2*mb, d2),
	}
	days, threshold := Aggregate(recs)
	assert.Empty(t, CorruptedDates(days, threshold))
	for _, d := range days {
		assert.False(t, IsCorrupted(d, threshold))
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	recs := scenarioA()
	days1, th1 := Aggregate(recs)

	shuffled := make([]models.FileRecord, len(recs))
	copy(shuffled, recs)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	days2, th2 := Aggregate(shuffled)

	assert.Equal(t, th1, th2)
	assert.Equal(t, days1, days2)
}

func TestUnparseableExcludedFromGroupingButInMedian(t *testing.T) {
	recs := []models.FileRecord{
		record("AM01_20240301_120000.wav", 4*mb, d1),
		record("stray.wav", 100*mb, d1),
	}
	days, threshold := Aggregate(recs)

	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].FileCount)
	assert.InDelta(t, 4.0, days[0].MeanSizeMB, 1e-9)

	// Median still sees both sizes.
	assert.InDelta(t, 52.0, threshold, 1e-9)
}

func TestGroupingUsesModifiedTimeNotFilename(t *testing.T) {
	// Filename says March 1st, modification time says March 2nd: the
	// aggregation must follow the modification time.
	recs := []models.FileRecord{
		record("AM01_20240301_120000.wav", 4*mb, d2),
	}
	days, _ := Aggregate(recs)
	require.Len(t, days, 1)
	assert.Equal(t, models.DateOf(d2), days[0].Date)
}
