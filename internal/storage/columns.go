package storage

import (
	"encoding/json"
	"fmt"

	"github.com/FranksOps/rigscout/internal/model"
)

// EncodeColumns renders the structured fields of r as JSON text for
// column-oriented backends. A nil profile encodes as "".
func (r *Run) EncodeColumns() (profile, failed string, err error) {
	if r.Profile != nil {
		p, err := json.Marshal(r.Profile)
		if err != nil {
			return "", "", fmt.Errorf("encode profile: %w", err)
		}
		profile = string(p)
	}
	if len(r.Failed) == 0 {
		return profile, "[]", nil
	}
	f, err := json.Marshal(r.Failed)
	if err != nil {
		return "", "", fmt.Errorf("encode failed stores: %w", err)
	}
	return profile, string(f), nil
}

// DecodeColumns is the inverse of EncodeColumns.
func (r *Run) DecodeColumns(profile, failed string) error {
	r.Profile = nil
	if profile != "" {
		r.Profile = &model.RequirementProfile{}
		if err := json.Unmarshal([]byte(profile), r.Profile); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
	}
	r.Failed = nil
	if failed != "" && failed != "[]" && failed != "null" {
		if err := json.Unmarshal([]byte(failed), &r.Failed); err != nil {
			return fmt.Errorf("decode failed stores: %w", err)
		}
	}
	return nil
}
