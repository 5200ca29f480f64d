package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/namespace"
)

// Scenario is one document run against scripted metadata.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Payloads are the metadata the document may import.
	Payloads []PayloadSpec `yaml:"payloads,omitempty"`

	// Document is the .rain text under test.
	Document string `yaml:"document"`

	// Async parses with remote resolution of missing imports.
	Async bool `yaml:"async,omitempty"`

	// Assertions validate the resulting snapshot.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Payload sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceNone   = "none"
)

// PayloadSpec describes one metadata payload. Exactly one of Words,
// Deployer, Dotrain or Raw is set.
type PayloadSpec struct {
	Name     string        `yaml:"name"`
	Source   string        `yaml:"source,omitempty"`
	Words    []WordSpec    `yaml:"words,omitempty"`
	Deployer *DeployerSpec `yaml:"deployer,omitempty"`
	Dotrain  string        `yaml:"dotrain,omitempty"`
	Raw      string        `yaml:"raw,omitempty"`
}

// DeployerSpec describes a deployer payload.
type DeployerSpec struct {
	// Bytecode is 0x-prefixed hex.
	Bytecode string     `yaml:"bytecode"`
	Words    []WordSpec `yaml:"words"`
}

// WordSpec describes one word. Nil bounds are unbounded.
type WordSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Inputs      *int   `yaml:"inputs,omitempty"`
	OperandArgs *int   `yaml:"operand_args,omitempty"`
}

// Assertion validates a snapshot.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// State is the expected snapshot state (state).
	State string `yaml:"state,omitempty"`

	// Code is the expected error code name (problem, compose).
	Code string `yaml:"code,omitempty"`

	// At is text the problem range must cover; {{name}} placeholders are
	// substituted (problem).
	At string `yaml:"at,omitempty"`

	// Binding restricts a problem to one binding's problems (problem).
	Binding string `yaml:"binding,omitempty"`

	// Name is the dotted binding path (binding).
	Name string `yaml:"name,omitempty"`

	// BindingType, Value and Dependencies are compared when set (binding).
	BindingType  string   `yaml:"binding_type,omitempty"`
	Value        string   `yaml:"value,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`

	// Path and Kind locate a namespace node (namespace).
	Path string `yaml:"path,omitempty"`
	Kind string `yaml:"kind,omitempty"`

	// Entrypoints and Order describe a composition (compose).
	Entrypoints []string `yaml:"entrypoints,omitempty"`
	Order       []string `yaml:"order,omitempty"`
}

// Assertion types.
const (
	AssertState      = "state"
	AssertNoProblems = "no_problems"
	AssertProblem    = "problem"
	AssertBinding    = "binding"
	AssertNamespace  = "namespace"
	AssertCompose    = "compose"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == "" {
		return fmt.Errorf("document is required")
	}

	seen := make(map[string]bool)
	for i, p := range s.Payloads {
		if p.Name == "" {
			return fmt.Errorf("payloads[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("payloads[%d]: duplicate payload name %q", i, p.Name)
		}
		seen[p.Name] = true

		switch p.Source {
		case "", SourceLocal, SourceRemote, SourceNone:
		default:
			return fmt.Errorf("payloads[%d]: unknown source %q", i, p.Source)
		}

		set := 0
		if len(p.Words) > 0 {
			set++
		}
		if p.Deployer != nil {
			set++
		}
		if p.Dotrain != "" {
			set++
		}
		if p.Raw != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("payloads[%d]: exactly one of words, deployer, dotrain or raw is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	case AssertNoProblems:
	case AssertProblem:
		if _, ok := ir.ParseErrorCode(a.Code); !ok {
			return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
		}
	case AssertBinding:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for binding", index)
		}
		if _, err := namespace.SplitPath(a.Name); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertNamespace:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for namespace", index)
		}
	case AssertCompose:
		if len(a.Entrypoints) == 0 {
			return fmt.Errorf("assertions[%d]: entrypoints are required for compose", index)
		}
		if a.Code == "" && len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order or code is required for compose", index)
		}
		if a.Code != "" {
			if _, ok := ir.ParseErrorCode(a.Code); !ok {
				return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
