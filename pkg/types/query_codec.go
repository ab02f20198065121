// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"

	"go.yaml.in/yaml/v3"
)

// MarshalJSON encodes the query's fields.
func (q NormalizedQuery) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.toJSON())
}

// UnmarshalJSON decodes a query written by MarshalJSON.
func (q *NormalizedQuery) UnmarshalJSON(data []byte) error {
	var v queryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	q.fromJSON(v)
	return nil
}

// MarshalYAML encodes the query's fields.
func (q NormalizedQuery) MarshalYAML() (interface{}, error) {
	return q.toJSON(), nil
}

// UnmarshalYAML decodes a query written by MarshalYAML.
func (q *NormalizedQuery) UnmarshalYAML(node *yaml.Node) error {
	var v queryJSON
	if err := node.Decode(&v); err != nil {
		return err
	}
	q.fromJSON(v)
	return nil
}
