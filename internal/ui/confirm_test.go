package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmFrom(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		" yes \n": true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"yep\n":   false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got := ConfirmFrom(strings.NewReader(input), &out, "Send?")
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}
