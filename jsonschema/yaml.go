package jsonschema

import (
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the validator as a YAML mapping with the same keyword
// order as the BSON encoding.
func (s *Schema) MarshalYAML() (interface{}, error) {
	d, err := s.toD(1, DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	return yamlNode(d), nil
}

// UnmarshalYAML reads a validator from a YAML mapping. The mapping is
// transcoded to BSON and decoded by the same code path as Unmarshal.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	v, err := bsonValue(node, 1)
	if err != nil {
		return err
	}
	d, ok := v.(bson.D)
	if !ok {
		return fmt.Errorf("jsonschema: line %d: expected a mapping", node.Line)
	}
	data, err := bson.Marshal(d)
	if err != nil {
		return fmt.Errorf("jsonschema: %w", err)
	}
	return s.UnmarshalBSON(data)
}

func yamlNode(v interface{}) *yaml.Node {
	switch x := v.(type) {
	case bson.D:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range x {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				yamlNode(e.Value))
		}
		return n
	case bson.A:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(x)}
	case int32:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(x), 10)}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(x, 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func bsonValue(n *yaml.Node, depth int) (interface{}, error) {
	if depth > DefaultMaxDepth {
		return nil, ErrMaxDepth
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return bson.D{}, nil
		}
		return bsonValue(n.Content[0], depth)
	case yaml.AliasNode:
		return bsonValue(n.Alias, depth)
	case yaml.MappingNode:
		d := make(bson.D, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := bsonValue(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: n.Content[i].Value, Value: v})
		}
		return d, nil
	case yaml.SequenceNode:
		a := make(bson.A, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := bsonValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		}
		return a, nil
	}

	switch n.ShortTag() {
	case "!!bool":
		return strconv.ParseBool(n.Value)
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: line %d: %w", n.Line, err)
		}
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	case "!!float":
		return strconv.ParseFloat(n.Value, 64)
	case "!!null":
		return nil, nil
	}
	return n.Value, nil
}
