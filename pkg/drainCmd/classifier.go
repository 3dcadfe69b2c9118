package drainCmd

import (
	"fmt"
	"regexp"
)

// Classify reports whether a line is an error line. Error stream lines always are;
// stdout lines are errors only when the validator says so.
func Classify(isErrorStream bool, line string, validator ErrorValidator) bool {
	if isErrorStream {
		return true
	}
	if validator != nil {
		return validator(line)
	}
	return false
}

// PatternValidator builds an ErrorValidator matching lines against a regular expression.
// An empty pattern yields a nil validator.
func PatternValidator(pattern string) (ErrorValidator, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile error pattern %q: %w", pattern, err)
	}
	return re.MatchString, nil
}
