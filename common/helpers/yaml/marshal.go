// SPDX-FileCopyrightText: 2023 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package yaml

import "gopkg.in/yaml.v3"

// Marshal serializes the provided value into a YAML document.
func Marshal(in any) ([]byte, error) {
	return yaml.Marshal(in)
}
