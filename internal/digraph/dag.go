package digraph

import (
	"time"

	"github.com/robfig/cron/v3"
)

// DAG is a compiled workflow definition parsed from a YAML file.
type DAG struct {
	// Location is the absolute path to the DAG file.
	Location string `json:"location,omitempty"`
	// Name identifies the DAG. Defaults to the file name without extension.
	Name string `json:"name"`
	// Group is an optional grouping label.
	Group string `json:"group,omitempty"`
	// Parent is the name of the owning DAG when this definition is a
	// subdag. Empty for top-level DAGs.
	Parent string `json:"parent,omitempty"`
	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`
	// Tags contains the list of tags for the DAG.
	Tags []string `json:"tags,omitempty"`
	// Owners lists the maintainers of the DAG.
	Owners []string `json:"owners,omitempty"`
	// Schedule contains the parsed cron schedules for the DAG.
	Schedule []Schedule `json:"schedule,omitempty"`
	// Params contains default parameters passed to each run.
	Params []string `json:"params,omitempty"`
	// Steps contains the list of steps in the DAG.
	Steps []Step `json:"steps,omitempty"`
	// Timeout is the maximum execution time of a run.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Schedule contains a cron expression and its parsed form.
type Schedule struct {
	// Expression is the cron expression.
	Expression string `json:"expression"`
	// Parsed is the parsed cron schedule.
	Parsed cron.Schedule `json:"-"`
}

// Step is a single unit of work within a DAG.
type Step struct {
	// Name identifies the step within the DAG.
	Name string `json:"name"`
	// Command is the command to run.
	Command string `json:"command,omitempty"`
	// Run names a child DAG to execute instead of a command.
	Run string `json:"run,omitempty"`
	// Depends lists the names of steps that must finish first.
	Depends []string `json:"depends,omitempty"`
}

// IsSubDAG reports whether the definition belongs to a parent DAG.
func (d *DAG) IsSubDAG() bool {
	return d.Parent != ""
}

// HasTag reports whether the DAG carries the given tag.
func (d *DAG) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
