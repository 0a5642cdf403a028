package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcpulse/internal/shared/testutil"
)

func TestNewCSVWriter(t *testing.T) {
	writer := NewCSVWriter(WriteOptions{BOMPrefix: true}, nil)
	require.NotNil(t, writer)
	assert.NotNil(t, writer.logger)
	assert.True(t, writer.options.BOMPrefix)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		headers  []string
		records  [][]string
		expected string
	}{
		{
			name:     "headers and records",
			headers:  []string{"x1", "x2"},
			records:  [][]string{{"10", "12"}, {"9", "11"}},
			expected: "x1,x2\n10,12\n9,11\n",
		},
		{
			name:     "no headers",
			records:  [][]string{{"49.5", "50.25"}},
			expected: "49.5,50.25\n",
		},
		{
			name:     "empty input",
			expected: "",
		},
		{
			name:     "bom prefix",
			options:  WriteOptions{BOMPrefix: true},
			headers:  []string{"chart"},
			records:  [][]string{{"xr"}},
			expected: "\ufeffchart\nxr\n",
		},
		{
			name:     "blank separator row",
			headers:  []string{"a"},
			records:  [][]string{{"1"}, {}, {"b"}},
			expected: "a\n1\n\nb\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewCSVWriter(tt.options, nil).WriteCSV(&buf, tt.headers, tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestCSVWriter_SpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	writer := NewCSVWriter(WriteOptions{}, nil)

	headers := []string{"source", "note"}
	records := [][]string{
		{"upload:line 3, week 12.csv", `operator said "recheck"`},
		{"upload:ÜberLinie.xlsx", "multi\nline"},
	}
	require.NoError(t, writer.WriteCSV(&buf, headers, records))

	got, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, records[0], got[1])
	assert.Equal(t, records[1], got[2])
}

func TestCSVWriter_ConcurrentWrites(t *testing.T) {
	writer := NewCSVWriter(WriteOptions{}, nil)

	const numGoroutines = 10
	var wg sync.WaitGroup
	outputs := make([]bytes.Buffer, numGoroutines)
	errs := make([]error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = writer.WriteCSV(&outputs[i], []string{"x"}, [][]string{{formatInt(i)}})
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "x\n"+formatInt(i)+"\n", outputs[i].String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSVWriter_ErrorScenarios(t *testing.T) {
	t.Run("bom write fails", func(t *testing.T) {
		err := NewCSVWriter(WriteOptions{BOMPrefix: true}, nil).WriteCSV(failingWriter{}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOM")
	})

	t.Run("flush fails", func(t *testing.T) {
		err := NewCSVWriter(WriteOptions{}, nil).WriteCSV(failingWriter{}, []string{"a"}, [][]string{{"1"}})
		assert.Error(t, err)
	})
}

func TestCSVWriter_WriteAnalysisLogs(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	writer := NewCSVWriter(WriteOptions{}, logger)

	var buf bytes.Buffer
	require.NoError(t, writer.WriteAnalysis(&buf, referenceAnalysis(t, false)))
	assert.True(t, strings.HasPrefix(buf.String(), "subgroup,mean"))
	assert.True(t, handler.ContainsMessage("writing analysis csv"))
}

func BenchmarkCSVWriter_WriteCSV(b *testing.B) {
	writer := NewCSVWriter(WriteOptions{}, nil)
	records := make([][]string, 1000)
	for i := range records {
		records[i] = []string{formatInt(i), formatFloat(49.5), formatFloat(50.25), formatBool(i%7 == 0)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := writer.WriteCSV(&buf, subgroupHeaders, records); err != nil {
			b.Fatal(err)
		}
	}
}
