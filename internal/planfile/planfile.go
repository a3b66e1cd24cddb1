package planfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stepwise-db/stepwise/internal/source"
)

// FormatVersion is written into every plan file and checked on load.
const FormatVersion = "1"

// Plan is a reviewable snapshot of the pending migrations at the time
// `stepwise plan` ran. apply --plan refuses to run if the script directory
// has drifted from it.
type Plan struct {
	Version     string    `json:"version"`
	Dialect     string    `json:"dialect"`
	GeneratedAt time.Time `json:"generated_at"`
	Scripts     []Step    `json:"scripts"`
}

// Step is one pending script in the plan, pinned by checksum.
type Step struct {
	Identifier string `json:"identifier"`
	Filename   string `json:"filename"`
	Checksum   string `json:"checksum"`
}

// planSchema validates the shape of a plan file before any field is
// trusted. Kept strict: unknown top-level fields are rejected so a typo in
// a hand-edited plan fails loudly.
const planSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["version", "dialect", "generated_at", "scripts"],
  "properties": {
    "version": {"type": "string"},
    "dialect": {"type": "string"},
    "generated_at": {"type": "string"},
    "scripts": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["identifier", "filename", "checksum"],
        "properties": {
          "identifier": {"type": "string", "minLength": 1},
          "filename": {"type": "string", "minLength": 1},
          "checksum": {"type": "string", "pattern": "^[0-9a-f]{64}$"}
        }
      }
    }
  }
}`

// Checksum returns the hex sha256 of a script body.
func Checksum(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// New builds a Plan from the pending scripts.
func New(dialect string, pending []source.Script) *Plan {
	plan := &Plan{
		Version:     FormatVersion,
		Dialect:     dialect,
		GeneratedAt: time.Now().UTC(),
		Scripts:     make([]Step, 0, len(pending)),
	}
	for _, script := range pending {
		plan.Scripts = append(plan.Scripts, Step{
			Identifier: script.Identifier,
			Filename:   script.Filename,
			Checksum:   Checksum(script.Body),
		})
	}
	return plan
}

// Write saves the plan as indented JSON.
func (p *Plan) Write(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// Load reads a plan file and validates it against the plan JSON Schema.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(planSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate plan file: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("invalid plan file %s:\n  %s", path, strings.Join(issues, "\n  "))
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	if plan.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported plan file version %q (want %q)", plan.Version, FormatVersion)
	}
	return &plan, nil
}

// Verify checks the plan against the current pending scripts. Any drift
// between the two (a script added, removed, reordered, or edited since the
// plan was written) is an error; the operator should re-run plan.
func (p *Plan) Verify(pending []source.Script) error {
	if len(p.Scripts) != len(pending) {
		return fmt.Errorf("plan is stale: it lists %d pending scripts, the directory has %d", len(p.Scripts), len(pending))
	}
	for i, step := range p.Scripts {
		script := pending[i]
		if step.Identifier != script.Identifier || step.Filename != script.Filename {
			return fmt.Errorf("plan is stale: position %d is %s in the plan but %s on disk", i+1, step.Filename, script.Filename)
		}
		if step.Checksum != Checksum(script.Body) {
			return fmt.Errorf("plan is stale: %s changed since the plan was written", script.Filename)
		}
	}
	return nil
}
