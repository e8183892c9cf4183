package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/affguard/pkg/dataset"
)

const header = "Player ID,Country,Affiliate ID,First deposit date,Deposits count,Deposit amount," +
	"Bets amount,Company profit (total),RS,CPA,Commission amount,Bonus amount,Ignored"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "export.csv", "\ufeff"+header+"\n"+
		"p1,DE,101,2024-06-28,2,100.5,300,-12,0,25,25,,x\n"+
		"p2,DE,101,,1,10,0,0,3,0,3,1,y\n")

	records, err := Loader{}.Load(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "p1", records[0].PlayerID)
	assert.Equal(t, "DE", records[0].Country)
	assert.Equal(t, "101", records[0].AffiliateID)
	assert.Equal(t, int64(2), records[0].DepositsCount)
	assert.Equal(t, "25", records[0].CPA.String())
	assert.True(t, records[0].HasDate())
	assert.False(t, records[1].HasDate())
}

func TestLoadSemicolons(t *testing.T) {
	body := strings.ReplaceAll(header, ",", ";") + "\n" +
		"p1;SE;7;2024-06-28;1;1;1;1;0;0;0;0;z\n"
	path := writeFile(t, "export.csv", body)

	records, err := Loader{Comma: ';'}.Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SE", records[0].Country)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantRow int
	}{
		{
			name:    "missing column",
			body:    "Player ID,Country\np1,DE\n",
			wantErr: dataset.ErrMissingColumn,
		},
		{
			name:    "empty file",
			body:    "",
			wantErr: dataset.ErrNoRecords,
		},
		{
			name:    "header only",
			body:    header + "\n",
			wantErr: dataset.ErrNoRecords,
		},
		{
			name: "bad date on second row",
			body: header + "\n" +
				"p1,DE,101,2024-06-28,2,1,1,1,0,0,0,0,x\n" +
				"p2,DE,101,someday,2,1,1,1,0,0,0,0,x\n",
			wantErr: dataset.ErrBadDate,
			wantRow: 2,
		},
		{
			name: "number in date column",
			body: header + "\n" +
				"p1,DE,101,1e9,2,1,1,1,0,0,0,0,x\n",
			wantErr: dataset.ErrBadDate,
			wantRow: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "export.csv", tt.body)
			_, err := Loader{}.Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var inErr *dataset.InputError
			require.ErrorAs(t, err, &inErr)
			assert.Equal(t, path, inErr.Path)
			assert.Equal(t, tt.wantRow, inErr.Row)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Loader{}.Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	var inErr *dataset.InputError
	assert.ErrorAs(t, err, &inErr)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sheets := []dataset.Sheet{
		{
			Name:   "DE",
			Header: []string{"Country", "Player count", "Anomaly Score", "Scaled Anomaly Score"},
			Rows: [][]any{
				{"DE", int64(8), 0.125, nil},
			},
		},
	}

	require.NoError(t, Saver{}.Save(sheets, dir))

	data, err := os.ReadFile(filepath.Join(dir, "DE.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Country,Player count,Anomaly Score,Scaled Anomaly Score\nDE,8,0.125,\n", string(data))
}

func TestSaveUnwritable(t *testing.T) {
	blocker := writeFile(t, "file", "x")

	err := Saver{}.Save([]dataset.Sheet{{Name: "DE"}}, filepath.Join(blocker, "out"))
	var outErr *dataset.OutputError
	assert.ErrorAs(t, err, &outErr)
}
