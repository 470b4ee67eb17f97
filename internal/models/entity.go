package models

import (
	"encoding/json"
	"fmt"
)

// EntityKind discriminates the closed set of value shapes an extracted
// entity may take.
type EntityKind int

const (
	EntityString EntityKind = iota
	EntityNumber
	EntityBool
	EntityList
	EntityMapKind
)

// EntityValue is one extracted entity: a string, number, bool, list, or
// nested map. The classifier decides the keys; this type only pins down
// the value shapes so the rest of the model stays statically checked.
type EntityValue struct {
	Kind EntityKind
	Str  string
	Num  float64
	Bool bool
	List []EntityValue
	Map  EntityMap
}

// EntityMap holds the structured fields extracted from a document.
type EntityMap map[string]EntityValue

func StringValue(s string) EntityValue  { return EntityValue{Kind: EntityString, Str: s} }
func NumberValue(n float64) EntityValue { return EntityValue{Kind: EntityNumber, Num: n} }
func BoolValue(b bool) EntityValue      { return EntityValue{Kind: EntityBool, Bool: b} }

// Number returns the numeric value for key, if present and numeric.
func (m EntityMap) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v.Kind != EntityNumber {
		return 0, false
	}
	return v.Num, true
}

// String returns the string value for key, if present.
func (m EntityMap) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v.Kind != EntityString {
		return "", false
	}
	return v.Str, true
}

func (v EntityValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case EntityString:
		return json.Marshal(v.Str)
	case EntityNumber:
		return json.Marshal(v.Num)
	case EntityBool:
		return json.Marshal(v.Bool)
	case EntityList:
		return json.Marshal(v.List)
	case EntityMapKind:
		return json.Marshal(v.Map)
	default:
		return nil, fmt.Errorf("unknown entity kind %d", v.Kind)
	}
}

func (v *EntityValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := entityFromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func entityFromInterface(raw interface{}) (EntityValue, error) {
	switch t := raw.(type) {
	case nil:
		return StringValue(""), nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []interface{}:
		list := make([]EntityValue, 0, len(t))
		for _, item := range t {
			ev, err := entityFromInterface(item)
			if err != nil {
				return EntityValue{}, err
			}
			list = append(list, ev)
		}
		return EntityValue{Kind: EntityList, List: list}, nil
	case map[string]interface{}:
		m := make(EntityMap, len(t))
		for k, item := range t {
			ev, err := entityFromInterface(item)
			if err != nil {
				return EntityValue{}, err
			}
			m[k] = ev
		}
		return EntityValue{Kind: EntityMapKind, Map: m}, nil
	default:
		return EntityValue{}, fmt.Errorf("unsupported entity value type %T", raw)
	}
}
