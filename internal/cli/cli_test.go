package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeLocalCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaigns.csv")
	csv := "date,campaign,clicks,cost\n" +
		"2024-01-01,Brand,100,20.5\n" +
		"2024-01-02,Brand,120,22\n" +
		"2024-01-03,Generic,80,18\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	out, err := execute(t, "analyze", path, "--report-type", "campaign_performance", "--metrics", "clicks")
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "campaigns.csv", got.File)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, []string{"clicks"}, got.Classification.Numerics)
	assert.NotEmpty(t, got.Summary)
	assert.NotEmpty(t, got.Charts)
}

func TestAnalyzeRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o600))

	_, err := execute(t, "analyze", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestNextRunWeekly(t *testing.T) {
	out, err := execute(t, "next-run",
		"--frequency", "weekly",
		"--day-of-week", "1",
		"--time", "09:00",
		"--timezone", "UTC",
		"--from", "2024-01-03T10:00:00Z",
		"--count", "2",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024-01-08T09:00:00Z"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-15T09:00:00Z"), lines[1])
}
