// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"fmt"
	"regexp"
)

// secretNamePattern matches org and secret names. Names become path segments
// in every backend, so separators and dot-only names are rejected.
var secretNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// ValidateName checks that org and name are safe to use as path segments.
func ValidateName(org, name string) error {
	if err := validateSegment("org", org); err != nil {
		return err
	}
	return validateSegment("name", name)
}

func validateSegment(kind, value string) error {
	if value == "" {
		return fmt.Errorf("secret %s is empty", kind)
	}
	if len(value) > 255 {
		return fmt.Errorf("secret %s is too long (%d > 255)", kind, len(value))
	}
	if !secretNamePattern.MatchString(value) {
		return fmt.Errorf("invalid secret %s %q: must match %s", kind, value, secretNamePattern.String())
	}
	return nil
}
