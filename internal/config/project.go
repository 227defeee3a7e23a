package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project represents the top-level phpx.yaml configuration.
type Project struct {
	// ModuleRoots are directories searched when resolving import paths,
	// in order. Defaults to ["."].
	ModuleRoots []string `yaml:"module_roots,omitempty"`

	// SignatureCache is the path of the sqlite file where export
	// signatures are persisted for external tooling (LSP, WIT stub
	// generation). Empty disables the cache.
	SignatureCache string `yaml:"signature_cache,omitempty"`

	// EmitStdClass makes the bridge emit stdClass-style objects instead of
	// associative arrays for outbound structs and object shapes.
	EmitStdClass bool `yaml:"emit_stdclass,omitempty"`

	// Strict toggles warning-as-error for the checker's warning-severity
	// diagnostics (e.g. unused generic parameters).
	Strict bool `yaml:"strict,omitempty"`
}

// LoadProject reads and validates phpx.yaml from dir. A missing file is not
// an error: defaults apply.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, "phpx.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultProject(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(p.ModuleRoots) == 0 {
		p.ModuleRoots = []string{"."}
	}
	for i, root := range p.ModuleRoots {
		if !filepath.IsAbs(root) {
			p.ModuleRoots[i] = filepath.Join(dir, root)
		}
	}
	if p.SignatureCache != "" && !filepath.IsAbs(p.SignatureCache) {
		p.SignatureCache = filepath.Join(dir, p.SignatureCache)
	}
	return &p, nil
}

func defaultProject() *Project {
	return &Project{ModuleRoots: []string{"."}}
}
