// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"ria-hunter/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks naming, uniqueness and timeouts, and that every task type
// in served is registered as implemented.
func (r *ActivityRegistry) Validate(served []string) error {
	var errs []error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, err))
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate activity id", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			errs = append(errs, fmt.Errorf("%s: task type is required", a.ID))
		} else if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("%s: duplicate task type %s", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if _, err := a.TimeoutDuration(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, err))
		}
	}

	for _, t := range served {
		a, ok := r.Find(t)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("task type %s is not registered", t))
		case a.ImplementationStatus != StatusImplemented:
			errs = append(errs, fmt.Errorf("task type %s is registered as %q", t, a.ImplementationStatus))
		}
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout; an empty value means no timeout.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}

// ValidateInput checks job variables against the activity input schema.
func (a Activity) ValidateInput(doc interface{}) *validation.ValidationResult {
	return validation.ValidateDocument(a.InputSchema, doc)
}

// Save writes the registry back to path, stamping LastUpdated.
func (r *ActivityRegistry) Save(path string, now time.Time) error {
	r.LastUpdated = now.Format("2006-01-02")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
