package costsettings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Component is one category of cost. The declaration order is the order
// components appear in a breakdown.
type Component uint8

const (
	ComponentFuel Component = iota + 1
	ComponentToll
	ComponentDriver
	ComponentMaintenance
	ComponentCargo
	ComponentOverhead
)

var componentNames = map[Component]string{
	ComponentFuel:        "fuel",
	ComponentToll:        "toll",
	ComponentDriver:      "driver",
	ComponentMaintenance: "maintenance",
	ComponentCargo:       "cargo",
	ComponentOverhead:    "overhead",
}

// AllComponents lists the vocabulary in breakdown order.
func AllComponents() []Component {
	return []Component{
		ComponentFuel, ComponentToll, ComponentDriver,
		ComponentMaintenance, ComponentCargo, ComponentOverhead,
	}
}

func (c Component) String() string {
	if n, ok := componentNames[c]; ok {
		return n
	}
	return fmt.Sprintf("component(%d)", uint8(c))
}

func (c Component) Valid() bool {
	_, ok := componentNames[c]
	return ok
}

func ParseComponent(s string) (Component, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range componentNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown cost component %q", s)
}

func (c Component) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown cost component %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Component) UnmarshalText(b []byte) error {
	parsed, err := ParseComponent(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ComponentSet is a set over the closed Component vocabulary.
type ComponentSet uint8

func NewComponentSet(cs ...Component) ComponentSet {
	var set ComponentSet
	for _, c := range cs {
		set = set.With(c)
	}
	return set
}

// AllEnabled has every known component switched on.
func AllEnabled() ComponentSet {
	return NewComponentSet(AllComponents()...)
}

func (s ComponentSet) Has(c Component) bool {
	return c.Valid() && s&(1<<c) != 0
}

func (s ComponentSet) With(c Component) ComponentSet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

func (s ComponentSet) Without(c Component) ComponentSet {
	return s &^ (1 << c)
}

// Components returns the members in breakdown order.
func (s ComponentSet) Components() []Component {
	var out []Component
	for _, c := range AllComponents() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s ComponentSet) Strings() []string {
	cs := s.Components()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func (s ComponentSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *ComponentSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	set, unknown := ParseComponentSet(names)
	if len(unknown) > 0 {
		return fmt.Errorf("unknown cost components %v", unknown)
	}
	*s = set
	return nil
}

// ParseComponentSet parses names into a set and returns the names it did not recognise.
func ParseComponentSet(names []string) (ComponentSet, []string) {
	var set ComponentSet
	var unknown []string
	for _, n := range names {
		c, err := ParseComponent(n)
		if err != nil {
			unknown = append(unknown, n)
			continue
		}
		set = set.With(c)
	}
	return set, unknown
}
