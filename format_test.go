package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 512, "512 B"},
		{"kilobytes", 1536, "1.5 KB"},
		{"megabytes", 5242880, "5.0 MB"},
		{"gigabytes", 1610612736, "1.5 GB"},
		{"terabytes", 1099511627776, "1.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSize(tt.bytes))
		})
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	sameYear := time.Date(now.Year(), time.March, 15, 10, 30, 0, 0, time.UTC)
	diffYear := time.Date(2020, time.December, 25, 8, 0, 0, 0, time.UTC)

	t.Run("same year", func(t *testing.T) {
		result := formatTime(sameYear)
		assert.Contains(t, result, "Mar")
		assert.Contains(t, result, "15")
		assert.Contains(t, result, "10:30")
	})

	t.Run("different year", func(t *testing.T) {
		result := formatTime(diffYear)
		assert.Contains(t, result, "Dec")
		assert.Contains(t, result, "2020")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, "-", formatTime(time.Time{}))
	})
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"NAME", "SIZE"}, [][]string{
		{"a.txt", "1 B"},
		{"longer-name.csv", "2.0 KB"},
	})

	assert.Equal(t, "NAME             SIZE\n"+
		"a.txt            1 B\n"+
		"longer-name.csv  2.0 KB\n", buf.String())
}

func TestPrintKV_SkipsEmpty(t *testing.T) {
	var buf bytes.Buffer

	printKV(&buf, [][2]string{{"Name", "x"}, {"Owner", ""}, {"ID", "42"}})

	assert.Equal(t, "Name:   x\nID:     42\n", buf.String())
}

func TestQuotaLabel(t *testing.T) {
	assert.Empty(t, quotaLabel(10, 0))
	assert.Equal(t, "1.0 KB of 4.0 KB", quotaLabel(1024, 4096))
}
