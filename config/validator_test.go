package config

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type EnvTestStruct struct {
	Env string `validate:"env"`
}

type CycleTestStruct struct {
	Min int `validate:"min=1"`
	Max int `validate:"gtefield=Min"`
}

func TestValidateEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"", false},
		{"prod", false},
		{"Development", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			err := validate.Struct(EnvTestStruct{Env: tt.env})
			if tt.expected && err != nil {
				t.Errorf("expected valid, got error: %v", err)
			}
			if !tt.expected && err == nil {
				t.Errorf("expected invalid for env %q, got valid", tt.env)
			}
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{
			name:     "gtefield",
			value:    CycleTestStruct{Min: 5, Max: 2},
			expected: "must be greater than or equal to Min",
		},
		{
			name:     "min",
			value:    CycleTestStruct{Min: 0, Max: 2},
			expected: "must be at least 1",
		},
		{
			name:     "env",
			value:    EnvTestStruct{Env: "qa"},
			expected: "must be one of [development staging production]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.value)
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if got := formatValidationError(fieldErrs[0]); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
