package llm

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompt is a pair of system and user templates.
type Prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts holds the prompt of every model call.
type Prompts struct {
	Initial      Prompt `yaml:"initial"`
	Criterion    Prompt `yaml:"criterion"`
	Confirmation Prompt `yaml:"confirmation"`
	Paraphrase   Prompt `yaml:"paraphrase"`
}

// DefaultPrompts returns the built-in Spanish prompts.
func DefaultPrompts() Prompts {
	p, err := ParsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts are invalid: %v", err))
	}
	return p
}

// ParsePrompts reads prompts from YAML.
func ParsePrompts(data []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("failed to parse prompts: %w", err)
	}
	return p, nil
}

// LoadPrompts reads a prompts file. Prompts missing from it keep their defaults.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("failed to read prompts: %w", err)
	}
	p := DefaultPrompts()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("failed to parse prompts: %w", err)
	}
	return p, nil
}

// promptData is the dot of every prompt template.
type promptData struct {
	Transcript string
	Vocabulary string
	Pending    string
	Draft      string
}

// build renders p into a Request.
func (p Prompt) build(data promptData) (Request, error) {
	system, err := execute("system", p.System, data)
	if err != nil {
		return Request{}, err
	}
	user, err := execute("user", p.User, data)
	if err != nil {
		return Request{}, err
	}
	return Request{System: system, Prompt: user}, nil
}

func execute(name, text string, data promptData) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid %s prompt: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
