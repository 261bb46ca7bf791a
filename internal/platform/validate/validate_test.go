package validate

import (
	"strings"
	"testing"

	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
)

type signup struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3"`
	Role     string `validate:"omitempty,oneof=admin manager learner"`
}

func TestStruct(t *testing.T) {
	if err := Struct(signup{Email: "a@b.co", Username: "abc"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Struct(signup{Email: "nope", Username: "ab", Role: "root"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
	for _, want := range []string{"email must be a valid email", "username must be at least 3", "role must be one of"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}
