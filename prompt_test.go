package lecture_archiver

import (
	"errors"
	"strings"
)

// scriptedPrompter replays canned answers, for testing interactive flows.
type scriptedPrompter struct {
	answers []string
	secrets []string
	asked   int
}

func (p *scriptedPrompter) Ask(prompt string) (string, error) {
	if len(p.answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	p.asked++
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) AskSecret(prompt string) (string, error) {
	if len(p.secrets) == 0 {
		return "", errors.New("no scripted secret left")
	}
	secret := p.secrets[0]
	p.secrets = p.secrets[1:]
	return secret, nil
}

func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Ask(prompt)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}
