package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/config"

	"github.com/chzyer/readline"
)

// ErrPromptAborted is returned when the user interrupts a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

// LineReader reads one answer per prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
	Close() error
}

type readlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader returns a LineReader on in and out. Nil streams select the terminal.
func NewReadlineReader(in io.ReadCloser, out io.Writer) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	return r.rl.Readline()
}

func (r *readlineReader) ReadSecret(prompt string) (string, error) {
	b, err := r.rl.ReadPassword(prompt)
	return string(b), err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

// EnvPrompter asks for environment variables a configuration cannot resolve.
type EnvPrompter struct {
	reader LineReader
}

// NewEnvPrompter creates a prompter reading answers from reader.
func NewEnvPrompter(reader LineReader) *EnvPrompter {
	return &EnvPrompter{reader: reader}
}

// MissingEnv returns the variables without a default that cfg cannot resolve,
// in tool order and without duplicates.
func MissingEnv(cfg *config.StackConfig, tools []api.Tool) []string {
	seen := map[string]bool{}
	var missing []string
	for _, t := range tools {
		for _, v := range t.RequiredEnvVars() {
			if v.HasDefault || seen[v.Name] {
				continue
			}
			seen[v.Name] = true
			if _, err := cfg.GetEnvVar(v); err != nil {
				missing = append(missing, v.Name)
			}
		}
	}
	return missing
}

// PromptMissing asks for every missing variable and merges the answers into
// cfg. Empty answers are skipped so that build-time validation still reports them.
func (p *EnvPrompter) PromptMissing(cfg *config.StackConfig, tools []api.Tool) (map[string]string, error) {
	answers := map[string]string{}
	for _, name := range MissingEnv(cfg, tools) {
		prompt := fmt.Sprintf("%s: ", name)
		read := p.reader.ReadLine
		if isSecretName(name) {
			read = p.reader.ReadSecret
		}

		value, err := read(prompt)
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil, ErrPromptAborted
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if value = strings.TrimSpace(value); value != "" {
			answers[name] = value
		}
	}

	if err := cfg.MergeEnv(answers, ""); err != nil {
		return nil, err
	}
	return answers, nil
}

func isSecretName(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range []string{"KEY", "TOKEN", "SECRET", "PASSWORD"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
