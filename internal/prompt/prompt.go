// Package prompt reads the workflow input interactively when no arguments are given.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// TopicLabel is shown when asking for a video script topic.
const TopicLabel = "Enter a video script topic (e.g. new running shoe promotion): "

// ErrAborted is returned when the user cancels the prompt.
var ErrAborted = errors.New("prompt aborted")

// Asker reads one answer to a question.
type Asker interface {
	Ask(label string) (string, error)
}

// LineAsker writes the label to Out and reads a single line from In.
type LineAsker struct {
	In  io.Reader
	Out io.Writer
}

// Ask returns the line without its trailing newline. End of input without
// any text yields an empty answer, which callers reject as empty input.
func (a LineAsker) Ask(label string) (string, error) {
	if a.Out != nil {
		if _, err := fmt.Fprint(a.Out, label); err != nil {
			return "", err
		}
	}

	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// FormAsker renders a huh input field; it needs a terminal on stdin.
type FormAsker struct{}

func (FormAsker) Ask(label string) (string, error) {
	var answer string
	err := huh.NewInput().
		Title(strings.TrimSpace(label)).
		Value(&answer).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", ErrAborted
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return answer, nil
}

// Default picks the form prompt on a terminal and a plain line reader otherwise,
// so piped input keeps working.
func Default() Asker {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormAsker{}
	}
	return LineAsker{In: os.Stdin, Out: os.Stderr}
}
