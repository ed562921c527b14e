package template

import (
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{
		"version":      "1.3.0",
		"org_version":  "1.2.3",
		"tag_name":     "v1.3.0",
		"org_tag_name": "v1.2.3",
		"repo":         "mar10/demo",
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"Bump version to {version}", "Bump version to 1.3.0"},
		{"v{version}", "v1.3.0"},
		{"{org_tag_name}...{tag_name}", "v1.2.3...v1.3.0"},
		{"no placeholders", "no placeholders"},
		{"https://github.com/{repo}/compare/{org_tag_name}...{tag_name}",
			"https://github.com/mar10/demo/compare/v1.2.3...v1.3.0"},
	}
	for _, tt := range tests {
		got, err := Expand(tt.tmpl, vars)
		if err != nil {
			t.Fatalf("Expand(%q): %v", tt.tmpl, err)
		}
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestExpand_MissingVariable(t *testing.T) {
	_, err := Expand("Release {version} for {unknown_thing}", map[string]string{"version": "1.0.0"})
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "unknown_thing") {
		t.Errorf("error should name the missing variable, got %v", err)
	}
}
