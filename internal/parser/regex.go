package parser

import (
	"regexp"
)

// regexValues applies a compiled regex to the body and returns matches.
// Named groups win over the first unnamed group, which wins over the
// whole match.
func regexValues(re *regexp.Regexp, body string) []string {
	var values []string

	names := re.SubexpNames()
	hasNamedGroups := false
	for _, name := range names {
		if name != "" {
			hasNamedGroups = true
			break
		}
	}

	switch {
	case hasNamedGroups:
		for _, match := range re.FindAllStringSubmatch(body, -1) {
			for i, name := range names {
				if name != "" && i < len(match) && match[i] != "" {
					values = append(values, match[i])
				}
			}
		}
	case re.NumSubexp() > 0:
		for _, match := range re.FindAllStringSubmatch(body, -1) {
			if len(match) > 1 {
				values = append(values, match[1])
			}
		}
	default:
		values = re.FindAllString(body, -1)
	}

	return values
}
