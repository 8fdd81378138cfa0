package cli

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	valid := map[string]Action{
		"0 0":    {Row: 0, Col: 0},
		"1,2":    {Row: 1, Col: 2},
		" 2 , 1": {Row: 2, Col: 1},
		"1":      {Row: 0, Col: 0},
		"5":      {Row: 1, Col: 1},
		"9":      {Row: 2, Col: 2},
	}
	for text, want := range valid {
		got, err := ParseAction(text)
		require.NoErrorf(t, err, "input %q", text)
		assert.Equalf(t, want, got, "input %q", text)
	}

	for _, text := range []string{"", "0", "10", "3 0", "1 3", "a b", "1 2 3"} {
		_, err := ParseAction(text)
		require.Errorf(t, err, "input %q should fail", text)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
}

func TestReadCommand(t *testing.T) {
	b := NewBoard()
	_, _, err := b.Apply(Action{Row: 1, Col: 1})
	require.NoError(t, err)

	// Occupied cell and garbage are rejected, then a valid move is accepted.
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader("5\nfoo\n0 2\n"), &out, false, false)
	action, err := ui.ReadCommand(b)
	require.NoError(t, err)
	assert.Equal(t, Action{Row: 0, Col: 2}, action)
	assert.Contains(t, out.String(), "already taken by X")
	assert.Contains(t, out.String(), "can't parse \"foo\"")

	// Three invalid inputs.
	ui = NewWithIO(strings.NewReader("5\n5\n5\n"), &out, false, false)
	_, err = ui.ReadCommand(b)
	assert.ErrorIs(t, err, ErrTooManyParsingErrors)

	// End of input.
	ui = NewWithIO(strings.NewReader(""), &out, false, false)
	_, err = ui.ReadCommand(b)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTooManyParsingErrors)
}

func TestRunNextMove(t *testing.T) {
	b := NewBoard()
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader("3\n"), &out, false, false)
	require.NoError(t, ui.RunNextMove(b))
	assert.Equal(t, X, b.At(0, 2))
	assert.Equal(t, O, b.NextPlayer())
	assert.Contains(t, out.String(), "Move #1")
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader(""), &out, false, false)
	b := NewBoard()
	for _, action := range []Action{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 0, Col: 2}} {
		_, _, err := b.Apply(action)
		require.NoError(t, err)
	}
	ui.Print(b)
	ui.PrintWinner(b)
	text := out.String()
	assert.Contains(t, text, " X | X | X ")
	assert.Contains(t, text, " O | O | 6 ")
	assert.Contains(t, text, "X PLAYER WINS")
	assert.NotContains(t, text, "Turn to play")
}
