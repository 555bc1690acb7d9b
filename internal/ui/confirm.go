package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmFrom asks a yes/no question on out and reads the answer from in.
// Only "y" or "yes" confirm; anything else, including EOF, declines.
func ConfirmFrom(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
