package mapping

import (
	"errors"
	"fmt"
	"strings"

	"ldap2moodle/core/model"
)

// Rule maps one directory attribute, or a constant, onto a target field.
type Rule struct {
	// Target is a user field name or customfield.<shortname>.
	Target string `mapstructure:"target"`
	// Source is the directory attribute. Leave empty to use Value.
	Source string `mapstructure:"source"`
	// Value is a constant used when Source is empty.
	Value string `mapstructure:"value"`
	// Default is used when the attribute is missing.
	Default *string `mapstructure:"default"`
	// Join concatenates all attribute values with the given separator instead
	// of taking the first one.
	Join string `mapstructure:"join"`
	// Transforms are applied in order, see Transforms.
	Transforms []string `mapstructure:"transforms"`
	// Required turns a missing attribute into a mapping error.
	Required bool `mapstructure:"required"`
}

// Rules holds the rule sets per mode. Update falls back to Create when empty.
type Rules struct {
	Create []Rule `mapstructure:"create"`
	Update []Rule `mapstructure:"update"`
}

// For returns the rules applied in mode.
func (r Rules) For(mode model.Mode) []Rule {
	if mode == model.ModeUpdate && len(r.Update) > 0 {
		return r.Update
	}
	return r.Create
}

// Validate checks targets and transforms of every rule.
func (r Rules) Validate() error {
	if len(r.Create) == 0 {
		return errors.New("mapping has no create rules")
	}
	var errs []error
	for mode, rules := range map[model.Mode][]Rule{model.ModeCreate: r.Create, model.ModeUpdate: r.Update} {
		for i, rule := range rules {
			if err := rule.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s rule %d: %w", mode, i, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r Rule) validate() error {
	if r.Target == "" {
		return errors.New("target is required")
	}
	if name, ok := strings.CutPrefix(r.Target, model.CustomFieldPrefix); ok {
		if name == "" {
			return errors.New("custom field name is required")
		}
	} else {
		f, ok := model.LookupField(r.Target)
		if !ok {
			return fmt.Errorf("unknown target field %q", r.Target)
		}
		if f.Access != model.Managed {
			return fmt.Errorf("target field %q cannot be mapped", r.Target)
		}
	}
	for _, t := range r.Transforms {
		if _, ok := transforms[strings.ToLower(t)]; !ok {
			return fmt.Errorf("unknown transform %q", t)
		}
	}
	return nil
}

// DefaultRules maps the usual inetOrgPerson attributes.
func DefaultRules() Rules {
	return Rules{
		Create: []Rule{
			{Target: "firstname", Source: "givenName", Transforms: []string{"trim"}, Required: true},
			{Target: "lastname", Source: "sn", Transforms: []string{"trim"}, Required: true},
			{Target: "email", Source: "mail", Transforms: []string{"trim", "lowercase"}, Required: true},
			{Target: "idnumber", Source: "employeeNumber", Transforms: []string{"trim"}},
			{Target: "department", Source: "ou"},
			{Target: "institution", Source: "o"},
			{Target: "city", Source: "l"},
			{Target: "country", Source: "c", Transforms: []string{"trim", "uppercase"}},
			{Target: "phone1", Source: "telephoneNumber"},
			{Target: "phone2", Source: "mobile"},
			{Target: "lang", Source: "preferredLanguage", Transforms: []string{"trim", "lowercase"}},
		},
	}
}
