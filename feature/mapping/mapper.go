package mapping

import (
	"fmt"
	"strings"

	"ldap2moodle/core/model"

	"github.com/spf13/viper"
)

// Func adapts a function to the record mapper contract of a sync.
type Func func(mode model.Mode, shape *model.User, rec model.SourceRecord) error

// Apply calls f.
func (f Func) Apply(mode model.Mode, shape *model.User, rec model.SourceRecord) error {
	return f(mode, shape, rec)
}

// Mapper applies a rule table to directory entries.
type Mapper struct {
	rules Rules
}

// New validates rules and returns a Mapper.
func New(rules Rules) (*Mapper, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return &Mapper{rules: rules}, nil
}

// Load reads rules from a YAML, JSON or TOML file. An empty path returns the
// default rules.
func Load(path string) (*Mapper, error) {
	if path == "" {
		return New(DefaultRules())
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read mapping %s: %w", path, err)
	}

	var rules Rules
	if err := v.Unmarshal(&rules); err != nil {
		return nil, fmt.Errorf("failed to decode mapping %s: %w", path, err)
	}
	return New(rules)
}

// Rules returns the rule table.
func (m *Mapper) Rules() Rules {
	return m.rules
}

// Apply fills shape from rec using the rules of mode. Fields whose attribute
// is missing stay unset, so they never clear a target value.
func (m *Mapper) Apply(mode model.Mode, shape *model.User, rec model.SourceRecord) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown mapping mode %q", mode)
	}
	for _, rule := range m.rules.For(mode) {
		value, ok := rule.resolve(rec)
		if !ok {
			if rule.Required {
				return fmt.Errorf("attribute %s required for %s is missing", rule.Source, rule.Target)
			}
			continue
		}

		if name, custom := strings.CutPrefix(rule.Target, model.CustomFieldPrefix); custom {
			shape.SetCustomField(name, value)
			continue
		}
		f, _ := model.LookupField(rule.Target)
		f.Set(shape, value)
	}
	return nil
}

func (r Rule) resolve(rec model.SourceRecord) (string, bool) {
	if r.Source == "" {
		return applyTransforms(r.Value, r.Transforms), true
	}

	values := rec.Values(r.Source)
	if len(values) == 0 {
		if r.Default == nil {
			return "", false
		}
		return applyTransforms(*r.Default, r.Transforms), true
	}

	value := values[0]
	if r.Join != "" {
		value = strings.Join(values, r.Join)
	}
	return applyTransforms(value, r.Transforms), true
}
