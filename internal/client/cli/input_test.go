package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubTerminal(t *testing.T, terminal bool, pw func(int) ([]byte, error)) {
	t.Helper()
	oldTerm, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldTerm, oldRead })
	isTerminal = func(int) bool { return terminal }
	if pw != nil {
		readPassword = pw
	}
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleText_EOF(t *testing.T) {
	got, err := GetSimpleText(rdr("lastline"), "Name?", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", io.Discard)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGetPassword_NotATerminalReadsLine(t *testing.T) {
	stubTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal read on a pipe")
		return nil, nil
	})

	pw, err := GetPassword(rdr("s3cret\n"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("pw"), nil })

	var out bytes.Buffer
	pw, err := GetPassword(rdr(""), &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw"), pw)
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_TerminalError(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	_, err := GetPassword(rdr(""), io.Discard)
	assert.EqualError(t, err, "boom")
}

func TestGetFloat_RepromptsOnGarbage(t *testing.T) {
	var out bytes.Buffer
	v, err := GetFloat(rdr("cheap\n4.5\n"), "Price", &out)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, v, 1e-9)
	assert.Contains(t, out.String(), `"cheap" is not a number`)
}

func TestGetInt_StopsOnEOF(t *testing.T) {
	_, err := GetInt(rdr("x\n"), "Stock", io.Discard)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGetYesNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "empty takes default", input: "\n", def: true, want: true},
		{name: "yes", input: "Y\n", want: true},
		{name: "no", input: "no\n", def: true, want: false},
		{name: "reprompt", input: "maybe\ny\n", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetYesNo(rdr(tt.input), "?", tt.def, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
