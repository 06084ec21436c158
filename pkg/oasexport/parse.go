package oasexport

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtEntity marks a component schema that should be generated from an ERD
// entity. Its value is a mapping with an "entity" key.
const ExtEntity = "x-bsonschema-entity"

// EntityRef is the parsed form of an ExtEntity extension.
type EntityRef struct {
	Entity string
}

// ParseEntityExtension parses the value of an ExtEntity extension.
func ParseEntityExtension(node *yaml.Node) (*EntityRef, error) {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must be an object", ExtEntity)
	}

	var name string
	found := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value != "entity" {
			continue
		}
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s: 'entity' value must be a string", ExtEntity)
		}
		name = strings.TrimSpace(value.Value)
		found = true
		break
	}

	if !found {
		return nil, fmt.Errorf("%s requires 'entity' key", ExtEntity)
	}
	if name == "" {
		return nil, fmt.Errorf("%s: 'entity' requires an entity name", ExtEntity)
	}
	return &EntityRef{Entity: name}, nil
}

// entityNode renders the ExtEntity value for an entity, with the namespace and
// primary key alongside the name.
func entityNode(name, namespace string, primaryKey []string) *yaml.Node {
	pk := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, field := range primaryKey {
		pk.Content = append(pk.Content, scalarNode(field))
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarNode("entity"), scalarNode(name),
			scalarNode("namespace"), scalarNode(namespace),
			scalarNode("primaryKey"), pk,
		},
	}
}
