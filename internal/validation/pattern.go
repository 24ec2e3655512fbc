// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"fmt"
	"regexp"
)

// tokenPattern matches names safe to embed in a broker subject or key:
// no whitespace and no wildcard characters.
var tokenPattern = regexp.MustCompile(`^[^\s*>]+$`)

type patternValidator struct {
	field   string
	value   string
	pattern *regexp.Regexp
}

var _ Validator = (*patternValidator)(nil)

// NewPatternValidator fails when value does not match pattern
func NewPatternValidator(field, value string, pattern *regexp.Regexp) Validator {
	return &patternValidator{field: field, value: value, pattern: pattern}
}

// NewTokenValidator fails when value contains whitespace or wildcards
func NewTokenValidator(field, value string) Validator {
	return NewPatternValidator(field, value, tokenPattern)
}

// Validate implements Validator
func (v *patternValidator) Validate() error {
	if !v.pattern.MatchString(v.value) {
		return fmt.Errorf("the [%s] value=(%s) is invalid", v.field, v.value)
	}
	return nil
}
