package main

import "testing"

func TestImportRule(t *testing.T) {
	root := "maestro/contexts/content-governance/proposal-lifecycle"
	cases := []struct {
		layer      string
		importPath string
		broken     bool
	}{
		{"domain", "strings", false},
		{"domain", root + "/domain/entities", false},
		{"domain", root + "/ports", true},
		{"domain", "github.com/google/uuid", true},
		{"application", root + "/ports", false},
		{"application", "maestro/contracts/gen/events/v1", false},
		{"application", root + "/adapters/memory", true},
		{"application", "maestro/internal/platform/messaging", true},
		{"ports", "maestro/contracts/gen/events/v1", false},
		{"transport", "encoding/json", false},
		{"transport", root + "/domain/entities", true},
		{"adapters", "gorm.io/gorm", false},
		{"adapters", root + "/ports", false},
		{"adapters", "maestro/contexts/content-governance/content-distribution/ports", true},
		{"module.go", "maestro/contexts/content-governance/reviewer-authority", true},
	}
	for _, tc := range cases {
		rule := importRule(tc.layer, root, tc.importPath)
		if (rule != "") != tc.broken {
			t.Fatalf("importRule(%q, %q) = %q, want broken=%v", tc.layer, tc.importPath, rule, tc.broken)
		}
	}
}
