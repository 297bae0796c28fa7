package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks whether an overwrite may happen.
//
// Confirm returns this call's answer. Under AlwaysYes or AlwaysNo it answers
// immediately without any interaction; under Ask it may change *policy.
type Confirmer interface {
	Confirm(question string, policy *Policy) (bool, error)
}

// Prompt asks an operator through a reader/writer pair, normally
// os.Stdin/os.Stdout.
type Prompt struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompt creates a Prompt reading one answer per line from in and writing
// questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{out: out, scanner: bufio.NewScanner(in)}
}

// Confirm implements Confirmer. The answer is the first word of a line; the
// rest of the line is ignored. Blank lines and invalid words re-print the
// question.
func (p *Prompt) Confirm(question string, policy *Policy) (bool, error) {
	if answer, ok := policy.decided(); ok {
		return answer, nil
	}

	for {
		fmt.Fprintf(p.out, "%s %s ", question, Choices)
		if !p.scanner.Scan() {
			fmt.Fprintln(p.out)
			if err := p.scanner.Err(); err != nil {
				return false, fmt.Errorf("failed to read answer: %w", err)
			}
			return false, ErrNoAnswer
		}
		words := strings.Fields(p.scanner.Text())
		if len(words) == 0 {
			continue
		}
		if answer, ok := apply(words[0], policy); ok {
			return answer, nil
		}
	}
}

// Scripted answers from a fixed list of tokens and records every question it
// was asked. Tokens are interpreted exactly like operator input, including
// invalid ones, which are skipped. It returns ErrNoAnswer when the list runs
// out.
type Scripted struct {
	Answers []string
	Asked   []string
}

// Confirm implements Confirmer.
func (s *Scripted) Confirm(question string, policy *Policy) (bool, error) {
	if answer, ok := policy.decided(); ok {
		return answer, nil
	}

	s.Asked = append(s.Asked, question)
	for len(s.Answers) > 0 {
		token := s.Answers[0]
		s.Answers = s.Answers[1:]
		if answer, ok := apply(token, policy); ok {
			return answer, nil
		}
	}
	return false, ErrNoAnswer
}
