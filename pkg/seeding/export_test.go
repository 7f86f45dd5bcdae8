package seeding

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExportFile(t *testing.T) {
	docs, err := ReadExportFile("testdata/export.json")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	first := docs[0]
	assert.Equal(t, "66f0a1b2c3d4e5f601234567", first.ID)
	assert.Equal(t, int64(245760), int64(first.FileSize))
	assert.Equal(t, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), first.CreatedAt.Time)
	require.NotNil(t, first.ExtractedData.LLMData)

	second := docs[1]
	assert.Equal(t, int64(1024), int64(second.FileSize), "bare numbers are accepted")
	assert.Equal(t, time.UnixMilli(1740787200000).UTC(), second.CreatedAt.Time, "$date may wrap $numberLong")

	assert.Nil(t, docs[2].ExtractedData.LLMData)
}

func TestReadExport_Invalid(t *testing.T) {
	_, err := ReadExport(strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)

	_, err = ReadExport(strings.NewReader(`[{"_id":"x","fileSize":{"$numberLong":"abc"}}]`))
	assert.Error(t, err)

	_, err = ReadExportFile("testdata/missing.json")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-02-27", time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)},
		{"2025-02-27T10:15:00Z", time.Date(2025, 2, 27, 10, 15, 0, 0, time.UTC)},
		{"2025-02-27T10:15:00.250+01:00", time.Date(2025, 2, 27, 9, 15, 0, 250_000_000, time.UTC)},
		{"27.02.2025", time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)},
		{" 2025-02-27 ", time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := parseDate("next tuesday")
	assert.Error(t, err)
}
