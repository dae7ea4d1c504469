/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "regexp"

// placeholder matches {Column}. Column names may contain anything but braces
// so headers like "First Name" bind too.
var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Format substitutes every {Name} in template with row[Name]. Placeholders
// whose key is missing stay verbatim. Substituted values are not scanned again.
func Format(template string, row map[string]string) string {
	if row == nil {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := row[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Placeholders lists the column names referenced by template, in order,
// including repeats.
func Placeholders(template string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}
