package digraph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/robfig/cron/v3"

	"github.com/dagr-org/dagr/internal/common/fileutil"
)

// LoadOptions contains options for loading a DAG.
type LoadOptions struct {
	name         string // Name to assign instead of deriving from the file.
	location     string // Source file path, set when loading from disk.
	onlyMetadata bool   // Skip step-level validation, keep metadata only.
}

// LoadOption is a function type for setting LoadOptions.
type LoadOption func(*LoadOptions)

// WithName sets the DAG name. It takes precedence over the document's name
// field, so a definition loaded from disk always resolves under the id its
// file name implies.
func WithName(name string) LoadOption {
	return func(o *LoadOptions) {
		o.name = name
	}
}

// OnlyMetadata sets the flag to load only metadata.
func OnlyMetadata() LoadOption {
	return func(o *LoadOptions) {
		o.onlyMetadata = true
	}
}

// definition mirrors the YAML document structure before it is built into a
// DAG.
type definition struct {
	Name        string   `yaml:"name"`
	Group       string   `yaml:"group"`
	Parent      string   `yaml:"parent"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Owners      []string `yaml:"owners"`
	Schedule    []string `yaml:"schedule"`
	Params      []string `yaml:"params"`
	Timeout     string   `yaml:"timeout"`
	Steps       []struct {
		Name    string   `yaml:"name"`
		Command string   `yaml:"command"`
		Run     string   `yaml:"run"`
		Depends []string `yaml:"depends"`
	} `yaml:"steps"`
}

// Load loads the DAG from the given file with the specified options.
func Load(ctx context.Context, filePath string, opts ...LoadOption) (*DAG, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read DAG file %s: %w", filePath, err)
	}

	opts = append(opts, withLocation(filePath))
	dag, err := LoadYAML(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	return dag, nil
}

// LoadYAML loads the DAG from the given YAML data with the specified options.
func LoadYAML(_ context.Context, data []byte, opts ...LoadOption) (*DAG, error) {
	var options LoadOptions
	for _, opt := range opts {
		opt(&options)
	}

	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse DAG definition: %w", err)
	}

	return build(def, options)
}

// withLocation records the source file path and derives the default name.
func withLocation(filePath string) LoadOption {
	return func(o *LoadOptions) {
		if o.name == "" {
			o.name = fileutil.TrimYAMLFileExtension(filepath.Base(filePath))
		}
		o.location = filePath
	}
}

func build(def definition, options LoadOptions) (*DAG, error) {
	// The caller-supplied name (the file-derived id) wins over the
	// document's name field, keeping the registered id and the definition
	// lookup in agreement.
	dag := &DAG{
		Location:    options.location,
		Name:        options.name,
		Group:       def.Group,
		Parent:      def.Parent,
		Description: def.Description,
		Tags:        def.Tags,
		Owners:      def.Owners,
		Params:      def.Params,
	}
	if dag.Name == "" {
		dag.Name = def.Name
	}

	var errs ErrorList

	if dag.Name == "" {
		errs = append(errs, ErrNameMissing)
	}

	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)
	for _, expr := range def.Schedule {
		parsed, err := parser.Parse(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidSchedule, expr, err))
			continue
		}
		dag.Schedule = append(dag.Schedule, Schedule{Expression: expr, Parsed: parsed})
	}

	if def.Timeout != "" {
		timeout, err := time.ParseDuration(def.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid timeout %q: %w", def.Timeout, err))
		} else {
			dag.Timeout = timeout
		}
	}

	if options.onlyMetadata {
		if len(errs) > 0 {
			return nil, errs
		}
		return dag, nil
	}

	stepNames := make(map[string]struct{}, len(def.Steps))
	for _, s := range def.Steps {
		if _, ok := stepNames[s.Name]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrStepNameDuplicate, s.Name))
		}
		stepNames[s.Name] = struct{}{}
		dag.Steps = append(dag.Steps, Step{
			Name:    s.Name,
			Command: s.Command,
			Run:     s.Run,
			Depends: s.Depends,
		})
	}
	for _, s := range dag.Steps {
		for _, dep := range s.Depends {
			if _, ok := stepNames[dep]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrStepDependsUnknown, s.Name, dep))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return dag, nil
}
