package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// secretPrompt reads lines from stdin without echo. One buffered reader is
// shared across questions so piped input is not lost between them.
type secretPrompt struct {
	stdin  *os.File
	reader *bufio.Reader
	out    io.Writer
}

func newSecretPrompt(stdin *os.File, out io.Writer) *secretPrompt {
	if stdin == nil {
		stdin = os.Stdin
	}
	return &secretPrompt{stdin: stdin, reader: bufio.NewReader(stdin), out: out}
}

func (prompt *secretPrompt) ask(label string) (string, error) {
	fmt.Fprint(prompt.out, label)

	var line string
	err := withEchoDisabled(prompt.stdin, func() error {
		read, readErr := prompt.reader.ReadString('\n')
		line = read
		if errors.Is(readErr, io.EOF) && read != "" {
			return nil
		}
		return readErr
	})
	fmt.Fprintln(prompt.out)
	if errors.Is(err, io.EOF) {
		return "", io.ErrUnexpectedEOF
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptNewPassword(stdin *os.File, out io.Writer) (string, error) {
	prompt := newSecretPrompt(stdin, out)

	first, err := prompt.ask("New password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	second, err := prompt.ask("Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if first != second {
		return "", errors.New("passwords do not match")
	}
	if first == "" {
		return "", errors.New("password is required")
	}
	return first, nil
}
