/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sizeflag parses byte-size CLI arguments carrying a K/M/G
// suffix, exposed as a standalone pflag.Value for cmd/s2c.
package sizeflag

import (
	"fmt"
	"strconv"
	"strings"
)

// Value implements pflag.Value / flag.Value for a byte-size argument
// accepting an optional trailing K, M, or G suffix (case-insensitive).
type Value struct {
	set bool
	n   int
}

// New creates a Value defaulting to def bytes until Set is called.
func New(def int) *Value {
	return &Value{n: def}
}

// String returns the current value formatted without a suffix.
func (v *Value) String() string {
	return strconv.Itoa(v.n)
}

// Type reports the pflag value type name shown in usage text.
func (v *Value) Type() string {
	return "size"
}

// Set parses s, applying a trailing K/M/G scale factor if present.
func (v *Value) Set(s string) error {
	n, err := Parse(s)
	if err != nil {
		return err
	}

	v.n = n
	v.set = true
	return nil
}

// Int returns the parsed value in bytes.
func (v *Value) Int() int {
	return v.n
}

// IsSet reports whether Set was ever called.
func (v *Value) IsSet() bool {
	return v.set
}

// Parse converts a size string like "4K", "256M", "1G", or a bare byte
// count, into an integer byte count.
func Parse(s string) (int, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))

	if upper == "" {
		return 0, fmt.Errorf("sizeflag: empty size")
	}

	scale := 1
	last := upper[len(upper)-1]

	switch last {
	case 'K':
		scale = 1024
		upper = upper[:len(upper)-1]
	case 'M':
		scale = 1024 * 1024
		upper = upper[:len(upper)-1]
	case 'G':
		scale = 1024 * 1024 * 1024
		upper = upper[:len(upper)-1]
	}

	n, err := strconv.Atoi(upper)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("sizeflag: invalid size %q", s)
	}

	return n * scale, nil
}
