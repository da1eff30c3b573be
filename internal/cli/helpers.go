package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks a yes/no question and keeps prompting until the answer
// is recognizable. A closed input stream counts as no.
func Confirm(in io.Reader, out io.Writer, msg string) bool {
	fmt.Fprintf(out, "%s (y/n)\n", msg)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y":
			return true
		case "n":
			return false
		}
		fmt.Fprintln(out, "Please respond with 'y' or 'n'.")
	}
	return false
}

// Truncate shortens s to length characters, marking the cut with "..".
func Truncate(s string, length int) string {
	if len(s) > length {
		return s[:length] + ".."
	}
	return s
}
