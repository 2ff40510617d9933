package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	servicesKey   = "services"
	parametersKey = "parameters"
)

// ParseYAML decodes a YAML document. The top level holds a services mapping
// and a parameters mapping; a document with neither key is read as a bare
// map of services.
func ParseYAML(data []byte) (*Document, error) {
	doc := newDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	_, hasServices := top[servicesKey]
	_, hasParameters := top[parametersKey]
	if !hasServices && !hasParameters {
		for name, raw := range top {
			doc.Services[name] = raw
		}
		return doc, nil
	}

	services, err := mapping(top, servicesKey)
	if err != nil {
		return nil, err
	}
	for name, raw := range services {
		doc.Services[name] = raw
	}

	parameters, err := mapping(top, parametersKey)
	if err != nil {
		return nil, err
	}
	for name, value := range parameters {
		doc.Parameters[name] = value
	}
	return doc, nil
}

func mapping(top map[string]any, key string) (map[string]any, error) {
	v, ok := top[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a mapping, got %T", key, v)
	}
	return m, nil
}
