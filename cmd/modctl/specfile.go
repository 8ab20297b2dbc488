package main

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/seantiz/edgemgmt/internal/model"
)

// readModuleSpec loads a module spec from a YAML or JSON file.
func readModuleSpec(path string) (model.ModuleSpec, error) {
	var spec model.ModuleSpec

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read module spec: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse module spec %s: %w", path, err)
	}
	if spec.Name == "" {
		return spec, errors.New("module spec: name is required")
	}
	if spec.Type == "" {
		return spec, errors.New("module spec: type is required")
	}
	return spec, nil
}
