// Package pipeline holds logic shared by the Dataflow and Dataproc
// template flows.
package pipeline

import (
	"fmt"
	"sort"
)

// ParamSpec lists the parameters a template definition accepts.
type ParamSpec struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// ValidateParams checks user-supplied parameters against a template's
// parameter spec: every required parameter must be present, and no
// parameter outside the spec is allowed.
func ValidateParams(spec ParamSpec, input map[string]string) error {
	allowed := make(map[string]struct{}, len(spec.Required)+len(spec.Optional))
	for _, p := range spec.Required {
		allowed[p] = struct{}{}
	}
	for _, p := range spec.Optional {
		allowed[p] = struct{}{}
	}

	var invalid []string
	for name := range input {
		if _, ok := allowed[name]; !ok {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return fmt.Errorf("invalid param(s) passed: %v", invalid)
	}

	var missing []string
	for _, p := range spec.Required {
		if _, ok := input[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required param(s): %v", missing)
	}

	return nil
}
