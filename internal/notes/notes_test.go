package notes

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStampsTurn(t *testing.T) {
	m := &Memory{}
	m.SetTurn(3)
	m.AddNote("found", "Ashford founded")
	m.SetTurn(4)
	m.AddNote("move", "Clan Oru moved")

	require.Equal(t, 2, m.Len())
	got := m.Drain()
	assert.Equal(t, []Note{
		{Turn: 3, Label: "found", Message: "Ashford founded"},
		{Turn: 4, Label: "move", Message: "Clan Oru moved"},
	}, got)
	assert.Equal(t, 0, m.Len())
}

func TestMultiAndSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := &Memory{}
	sink := Multi{Nop{}, m, Slog{Logger: logger}}

	sink.AddNote("rites", "policy drifted")

	assert.Equal(t, 1, m.Len())
	assert.Contains(t, buf.String(), "label=rites")
	assert.Contains(t, buf.String(), `message="policy drifted"`)
}

func TestMultiForwardsTurn(t *testing.T) {
	m := &Memory{}
	sink := Multi{Nop{}, m}
	sink.SetTurn(7)
	sink.AddNote("split", "Oru divides")

	got := m.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Turn)
}
