package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "player,team,position,date,points,assists,rebounds,fga,fgm,tpa,tpm,fta,ftm,turnovers,minutes\n"

func TestReadCSV(t *testing.T) {
	t.Run("parses rows with line numbers", func(t *testing.T) {
		in := header +
			"Ann Lee,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n" +
			"\n" +
			"Bo Park, Kansas ,F,11/11/2024,9,1,8,8,4,0,0,2,1,2,24\n"
		rows, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, "Ann Lee", rows[0].Player)
		assert.Equal(t, "Duke", rows[0].Team)
		assert.Equal(t, "G", rows[0].Position)
		assert.Equal(t, "18", rows[0].Stats["points"])

		assert.Equal(t, 4, rows[1].Line)
		assert.Equal(t, "Kansas", rows[1].Team)
		assert.Equal(t, time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC), rows[1].GameDate())
	})

	t.Run("header is case-insensitive with aliases and a BOM", func(t *testing.T) {
		in := "\ufeffPlayer,TEAM,Pos,Date,Points,Assists,Rebounds,FGA,FGM,3PA,3PM,FTA,FTM,TO,MIN,+/-\n" +
			"Ann,Duke,G,2024-11-04,1,2,3,4,5,6,7,8,9,10,11,-4\n"
		rows, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		r := rows[0]
		assert.Equal(t, "Ann", r.Player)
		assert.Equal(t, "G", r.Position)
		assert.Equal(t, "6", r.Stats["tpa"])
		assert.Equal(t, "7", r.Stats["tpm"])
		assert.Equal(t, "10", r.Stats["turnovers"])
		assert.Equal(t, "11", r.Stats["minutes"])
		assert.Equal(t, "-4", r.Stats["plusminus"])
	})

	t.Run("missing required columns", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("player,team,points\nAnn,Duke,3\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "date")
		assert.Contains(t, err.Error(), "minutes")
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("short records leave trailing cells blank", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader(header + "Ann,Duke,G,2024-11-04,12\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "12", rows[0].Stats["points"])
		v, ok := rows[0].Stats["minutes"]
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})
}

func TestReadFile(t *testing.T) {
	_, err := ReadFile(t.TempDir() + "/missing.csv")
	assert.Error(t, err)

	rows, err := ReadFile("../../public/sample_data/demo.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 90)
	for _, r := range rows {
		assert.NoError(t, r.Validate(), "line %d", r.Line)
	}
}
