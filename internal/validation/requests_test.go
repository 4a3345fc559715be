package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/reel/internal/types"
)

func fieldsOf(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name       string
		req        types.CredentialsRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  types.CredentialsRequest{Email: "a@example.com", Password: "secret1"},
		},
		{
			name:       "both missing",
			req:        types.CredentialsRequest{},
			wantFields: []string{"email", "password"},
		},
		{
			name:       "bad email",
			req:        types.CredentialsRequest{Email: "nope", Password: "secret1"},
			wantFields: []string{"email"},
		},
		{
			name:       "password too long for bcrypt",
			req:        types.CredentialsRequest{Email: "a@example.com", Password: strings.Repeat("p", 73)},
			wantFields: []string{"password"},
		},
		{
			name: "short password allowed at login",
			req:  types.CredentialsRequest{Email: "a@example.com", Password: "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldsOf(ValidateCredentials(tt.req))
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("fields = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestValidateRegistration_PasswordFloor(t *testing.T) {
	errs := ValidateRegistration(types.CredentialsRequest{Email: "a@example.com", Password: "abc"})
	if got := fieldsOf(errs); len(got) != 1 || got[0] != "password" {
		t.Errorf("fields = %v, want [password]", got)
	}

	if errs := ValidateRegistration(types.CredentialsRequest{Email: "a@example.com", Password: "abcdef"}); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateInteractRequest(t *testing.T) {
	valid := types.InteractRequest{
		VideoPath:       "/videos/Comedy/c1.mp4",
		Category:        "Comedy",
		InteractionType: "like",
	}
	if errs := ValidateInteractRequest(valid); len(errs) != 0 {
		t.Errorf("valid request rejected: %v", errs)
	}

	unknown := valid
	unknown.InteractionType = "share"
	if errs := ValidateInteractRequest(unknown); len(errs) != 0 {
		t.Errorf("unknown interaction type rejected: %v", errs)
	}

	errs := ValidateInteractRequest(types.InteractRequest{})
	want := []string{"video_path", "category", "interaction_type"}
	if got := fieldsOf(errs); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("fields = %v, want %v", got, want)
	}

	withNull := valid
	withNull.VideoPath = "/videos/a\x00.mp4"
	if got := fieldsOf(ValidateInteractRequest(withNull)); len(got) != 1 || got[0] != "video_path" {
		t.Errorf("fields = %v, want [video_path]", got)
	}
}

func TestValidateCategoryName(t *testing.T) {
	if errs := ValidateCategoryName("category", "Comedy"); len(errs) != 0 {
		t.Errorf("Comedy rejected: %v", errs)
	}
	if errs := ValidateCategoryName("category", "../secret"); len(errs) == 0 {
		t.Error("traversal accepted")
	}
}
