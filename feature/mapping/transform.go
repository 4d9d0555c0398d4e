package mapping

import (
	"strings"

	"ldap2moodle/core/utils"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// transforms are the value transforms available to rules.
var transforms = map[string]func(string) string{
	"trim":      strings.TrimSpace,
	"lowercase": func(s string) string { return cases.Lower(language.Und).String(s) },
	"uppercase": func(s string) string { return cases.Upper(language.Und).String(s) },
	"title":     func(s string) string { return cases.Title(language.Und).String(s) },
	"localpart": func(s string) string {
		local, _, _ := strings.Cut(s, "@")
		return local
	},
	"domain": func(s string) string {
		_, domain, _ := strings.Cut(s, "@")
		return domain
	},
	"bool": func(s string) string {
		if utils.ToBool(s) {
			return "1"
		}
		return "0"
	},
}

func applyTransforms(value string, names []string) string {
	for _, name := range names {
		if fn, ok := transforms[strings.ToLower(name)]; ok {
			value = fn(value)
		}
	}
	return value
}
