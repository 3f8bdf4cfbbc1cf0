package stack

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/pkg/logging"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

// Document is the persisted form of a pipeline.
type Document struct {
	Config config.Document `json:"config"`
	Tools  []ToolDocument  `json:"tools"`
}

// ToolDocument is one persisted tool.
type ToolDocument struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["config", "tools"],
  "properties": {
    "config": {
      "type": "object",
      "properties": {
        "log_level": {"type": "string"},
        "env_vars": {
          "type": ["object", "null"],
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "tools": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "params": {"type": ["object", "null"]}
        }
      }
    }
  }
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Document returns the persisted form of the pipeline.
func (p *Pipeline) Document() Document {
	doc := Document{
		Config: p.config.ToDocument(),
		Tools:  make([]ToolDocument, 0, len(p.tools)),
	}
	for _, t := range p.tools {
		params := t.Params()
		if params == nil {
			params = map[string]any{}
		}
		doc.Tools = append(doc.Tools, ToolDocument{Type: api.ToolType(t), Params: params})
	}
	return doc
}

// Save writes the pipeline document to path. Paths ending in .yaml or .yml
// are written as YAML, anything else as indented JSON.
func (p *Pipeline) Save(path string) error {
	if p.state != StateBuilt {
		return api.Errorf(api.ErrBuild, "save requires a built pipeline, state is %s", p.state)
	}

	data, err := json.MarshalIndent(p.Document(), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	if isYAML(path) {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("failed to encode pipeline as yaml: %w", err)
		}
	}

	err = config.WithFileLock(path, func() error {
		return config.WriteFileAtomic(path, data, 0644)
	})
	if err != nil {
		return err
	}
	logging.Info(pipelineSubsystem, "Saved pipeline with %d tools to %s", len(p.tools), path)
	return nil
}

// Load restores a pipeline saved with Save. Each tool type is resolved in
// reg.Tools, every tool's post-load hook runs (which initializes it), actions
// are registered when a runtime is attached through opts, and the result is
// Built. Environment validation is not repeated for loaded pipelines.
func Load(ctx context.Context, path string, reg *Registries, opts ...Option) (*Pipeline, error) {
	if reg == nil {
		return nil, fmt.Errorf("load %s: no registries configured", path)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.FromDocument(doc.Config)
	if err != nil {
		return nil, err
	}

	p := NewPipeline(cfg, reg, opts...)
	for i, td := range doc.Tools {
		entry, err := reg.Tools.Resolve(td.Type)
		if err != nil {
			return nil, lookupError(api.ErrValidation, "unknown tool type", td.Type, err)
		}
		params := td.Params
		if params == nil {
			params = map[string]any{}
		}
		tool, err := entry.New(params)
		if err != nil {
			return nil, api.Wrap(api.ErrValidation, err, "tools[%d]: invalid params for %s", i, td.Type)
		}
		p = p.WithTool(tool)
	}

	ctx = config.NewContext(ctx, p.config)
	for i, t := range p.tools {
		if err := api.PostLoadTool(ctx, t); err != nil {
			p.rollback(ctx, p.tools[:i])
			return nil, api.Wrap(api.ErrInitialization, err, "post-load tool %s", api.ToolType(t))
		}
	}
	if p.runtime != nil {
		if err := p.registerActions(); err != nil {
			p.rollback(ctx, p.tools)
			return nil, err
		}
	}

	p.state = StateBuilt
	logging.Info(pipelineSubsystem, "Loaded pipeline with %d tools from %s", len(p.tools), path)
	return p, nil
}

// ReadDocument reads and decodes the pipeline document at path without
// resolving any tools. It creates nothing on disk; Save replaces documents
// by rename, so a reader never sees a partial write.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read pipeline %s: %w", path, err)
	}
	return DecodeDocument(data, isYAML(path))
}

// DecodeDocument validates raw document bytes against the document schema
// and decodes them. YAML input is converted to JSON first.
func DecodeDocument(data []byte, fromYAML bool) (Document, error) {
	if fromYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return Document{}, api.Wrap(api.ErrValidation, err, "malformed pipeline document")
		}
		data = converted
	}

	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Document{}, api.Wrap(api.ErrValidation, err, "malformed pipeline document")
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Document{}, api.Errorf(api.ErrValidation, "malformed pipeline document: %s", strings.Join(problems, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, api.Wrap(api.ErrValidation, err, "malformed pipeline document")
	}
	return doc, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
