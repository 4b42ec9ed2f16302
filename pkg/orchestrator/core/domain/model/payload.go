package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Payload is a key-value document describing what a Job asks the remote
// service to do, or the result metadata it reported back.
type Payload map[string]interface{}

// NewPayload creates a new empty Payload.
func NewPayload() Payload {
	return make(Payload)
}

// Value implements the `driver.Valuer` interface, converting the Payload to a JSON string.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a Payload.
func (p *Payload) Scan(value interface{}) error {
	if value == nil {
		*p = make(Payload)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for Payload: %T", value)
	}

	if len(b) == 0 {
		*p = make(Payload)
		return nil
	}

	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("failed to unmarshal Payload JSON: %w", err)
	}
	return nil
}

// Copy creates a shallow copy of the Payload.
func (p Payload) Copy() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Put sets a value in the Payload.
func (p Payload) Put(key string, value interface{}) {
	p[key] = value
}

// Get retrieves the value for the specified key. Returns nil and false if absent.
func (p Payload) Get(key string) (interface{}, bool) {
	v, ok := p[key]
	return v, ok
}

// GetString retrieves the value for the specified key as a string.
func (p Payload) GetString(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
