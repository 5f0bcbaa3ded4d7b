package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scenario describes one scope tree to digest repeatedly: width branches
// from the root, each a chain of depth scopes, with watchers on every scope.
type scenario struct {
	Name       string `yaml:"name"`
	Width      int    `yaml:"width"`
	Depth      int    `yaml:"depth"`
	Watchers   int    `yaml:"watchers"`
	Iterations int    `yaml:"iterations"`
	Isolated   bool   `yaml:"isolated"`
}

type scenarioFile struct {
	Scenarios []scenario `yaml:"scenarios"`
}

func (s scenario) scopes() int {
	return 1 + s.Width*s.Depth
}

func (s scenario) validate() error {
	switch {
	case s.Width < 0 || s.Depth < 0:
		return fmt.Errorf("scenario %q: width and depth must not be negative", s.Name)
	case s.Width > 0 && s.Depth == 0:
		return fmt.Errorf("scenario %q: depth must be at least 1 when width is set", s.Name)
	case s.Watchers < 1:
		return fmt.Errorf("scenario %q: at least one watcher per scope is required", s.Name)
	case s.Iterations < 1:
		return fmt.Errorf("scenario %q: at least one iteration is required", s.Name)
	}
	return nil
}

// gridScenarios crosses every width with every depth.
func gridScenarios(widths, depths []int, watchers, iterations int) []scenario {
	scenarios := make([]scenario, 0, len(widths)*len(depths))
	for _, w := range widths {
		for _, d := range depths {
			scenarios = append(scenarios, scenario{
				Name:       fmt.Sprintf("digest: %d * %d", w, d),
				Width:      w,
				Depth:      d,
				Watchers:   watchers,
				Iterations: iterations,
			})
		}
	}
	return scenarios
}

func parseScenarios(data []byte, defaultIterations int) ([]scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("parse scenarios: no scenarios defined")
	}

	for i := range file.Scenarios {
		sc := &file.Scenarios[i]
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("scenario %d", i+1)
		}
		if sc.Watchers == 0 {
			sc.Watchers = 1
		}
		if sc.Iterations == 0 {
			sc.Iterations = defaultIterations
		}
		if err := sc.validate(); err != nil {
			return nil, err
		}
	}
	return file.Scenarios, nil
}

func loadScenarios(path string, defaultIterations int) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScenarios(data, defaultIterations)
}
