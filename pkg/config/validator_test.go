package config

import (
	"errors"
	"strings"
	"testing"
)

type validatorTestConfig struct {
	Alias    string `validate:"required"`
	MaxConns int    `validate:"min=1,max=1000"`
	Driver   string `validate:"oneof=thin thick"`
}

// TestValidator_Validate 测试结构体验证
func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		cfg     validatorTestConfig
		wantErr bool
		errPart string
	}{
		{
			name: "valid config",
			cfg:  validatorTestConfig{Alias: "default", MaxConns: 10, Driver: "thin"},
		},
		{
			name:    "missing required field",
			cfg:     validatorTestConfig{MaxConns: 10, Driver: "thin"},
			wantErr: true,
			errPart: "Alias is required",
		},
		{
			name:    "below minimum",
			cfg:     validatorTestConfig{Alias: "default", MaxConns: 0, Driver: "thin"},
			wantErr: true,
			errPart: "MaxConns must be at least 1",
		},
		{
			name:    "above maximum",
			cfg:     validatorTestConfig{Alias: "default", MaxConns: 5000, Driver: "thin"},
			wantErr: true,
			errPart: "MaxConns must be at most 1000",
		},
		{
			name:    "invalid enum value",
			cfg:     validatorTestConfig{Alias: "default", MaxConns: 10, Driver: "fat"},
			wantErr: true,
			errPart: "Driver must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("Validate() error should wrap ErrValidationFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Validate() error = %q, want containing %q", err.Error(), tt.errPart)
			}
		})
	}
}

// TestValidator_Validate_Nil 测试 nil 配置
func TestValidator_Validate_Nil(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(nil); !errors.Is(err, ErrNilConfig) {
		t.Errorf("Validate(nil) error = %v, want ErrNilConfig", err)
	}
}

// TestValidator_ValidateField 测试单值验证
func TestValidator_ValidateField(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateField("thin", "oneof=thin thick"); err != nil {
		t.Errorf("ValidateField(thin) error = %v, want nil", err)
	}
	if err := v.ValidateField("fat", "oneof=thin thick"); err == nil {
		t.Error("ValidateField(fat) should fail")
	}
	if err := v.ValidateField(0, "min=1"); err == nil {
		t.Error("ValidateField(0, min=1) should fail")
	}
}

// TestValidator_MustValidate 测试失败时 panic
func TestValidator_MustValidate(t *testing.T) {
	v := NewValidator()

	defer func() {
		if recover() == nil {
			t.Error("MustValidate() should panic on invalid config")
		}
	}()

	v.MustValidate(validatorTestConfig{})
}
