package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/sapclean/internal/core"
)

// prompter asks for missing paths on stdin. Questions are only printed
// when stdin is a terminal so that piped answers give clean output.
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(in io.Reader, out io.Writer, interactive bool) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// ask returns the next answer with surrounding quotes removed. A blank
// answer, "q" or end of input is core.ErrCancelled.
func (p *prompter) ask(question string) (string, error) {
	if p.interactive {
		fmt.Fprint(p.out, question)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}

	answer := cleanPath(line)
	if answer == "" || strings.EqualFold(answer, "q") {
		return "", core.ErrCancelled
	}
	return answer, nil
}

// cleanPath trims whitespace and one pair of matching quotes, as left by
// dragging a file into a terminal window.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
