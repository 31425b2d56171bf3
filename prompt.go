package lecture_archiver

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// A Prompter collects interactive input. Components take this interface so
// tests can script the conversation.
type Prompter interface {
	// Ask prints a prompt and reads one line of input.
	Ask(prompt string) (string, error)
	// AskSecret is like Ask, but the input must not echo to the terminal.
	AskSecret(prompt string) (string, error)
	// Confirm asks a yes/no question, re-asking until it gets one.
	Confirm(prompt string) (bool, error)
}

// TerminalPrompter reads from stdin, using the terminal's no-echo mode for
// secrets when stdin is a terminal.
type TerminalPrompter struct{}

func (TerminalPrompter) Ask(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p TerminalPrompter) AskSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.Ask(prompt)
	}
	fmt.Print(prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (p TerminalPrompter) Confirm(prompt string) (bool, error) {
	for {
		input, err := p.Ask(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
