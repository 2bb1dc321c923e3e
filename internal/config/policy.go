package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/academic-scheduler/internal/generator"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// policyFile is the on-disk shape of a generator policy:
//
//	days: [Monday, Tuesday, Wednesday, Thursday, Friday]
//	periods:
//	  - 08:00-08:50
//	  - start: "09:00"
//	    end: "09:50"
//	min_periods: 3
//	max_periods: 5
//
// Omitted keys keep the values of generator.DefaultPolicy.
type policyFile struct {
	Days       []string       `yaml:"days"`
	Periods    []periodSource `yaml:"periods"`
	MinPeriods *int           `yaml:"min_periods"`
	MaxPeriods *int           `yaml:"max_periods"`
}

// periodSource accepts either "HH:MM-HH:MM" or a start/end mapping.
type periodSource struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func (p *periodSource) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		start, end, ok := strings.Cut(node.Value, "-")
		if !ok {
			return fmt.Errorf("line %d: period %q must look like HH:MM-HH:MM", node.Line, node.Value)
		}
		p.Start, p.End = strings.TrimSpace(start), strings.TrimSpace(end)
		return nil
	}
	type plain periodSource
	return node.Decode((*plain)(p))
}

// LoadPolicy reads and validates a generator policy file.
func LoadPolicy(path string) (generator.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return generator.Policy{}, fmt.Errorf("config: read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document. Unknown keys are rejected.
func ParsePolicy(data []byte) (generator.Policy, error) {
	var file policyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return generator.Policy{}, fmt.Errorf("config: decode policy: %w", err)
	}

	policy := generator.DefaultPolicy()
	var errs []error

	if len(file.Days) > 0 {
		policy.Days = make([]time.Weekday, 0, len(file.Days))
		for _, name := range file.Days {
			day, err := scheduler.ParseWeekday(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			policy.Days = append(policy.Days, day)
		}
	}

	if len(file.Periods) > 0 {
		policy.Periods = make([]scheduler.Window, 0, len(file.Periods))
		for i, src := range file.Periods {
			window, err := scheduler.NewWindow(src.Start, src.End)
			if err != nil {
				errs = append(errs, fmt.Errorf("period %d: %w", i+1, err))
				continue
			}
			policy.Periods = append(policy.Periods, window)
		}
	}

	if file.MinPeriods != nil {
		policy.MinPeriods = *file.MinPeriods
	}
	if file.MaxPeriods != nil {
		policy.MaxPeriods = *file.MaxPeriods
	}

	if err := errors.Join(errs...); err != nil {
		return generator.Policy{}, fmt.Errorf("config: policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return generator.Policy{}, err
	}
	return policy, nil
}
