package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "maestro"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer of a governance module may import besides the
// standard library. Paths starting with "/" are relative to the module root
// (maestro/contexts/<context>/<module>).
type layerRule struct {
	allowed  []string
	external bool
}

var layerRules = map[string]layerRule{
	"domain":      {allowed: []string{"/domain"}},
	"ports":       {allowed: []string{"/domain", modulePath + "/contracts"}},
	"application": {allowed: []string{"/application", "/domain", "/ports", modulePath + "/contracts"}},
	"transport":   {allowed: []string{"/transport"}},
	"adapters":    {allowed: []string{"/", modulePath + "/contracts"}, external: true},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		violations = append(violations, checkFile(path)...)
		return nil
	})
	return violations
}

func checkFile(path string) []violation {
	normalized := filepath.ToSlash(path)
	parts := strings.Split(normalized, "/")
	if len(parts) < 4 || parts[0] != "contexts" {
		return nil
	}
	moduleRoot := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		if rule := importRule(parts[3], moduleRoot, importPath); rule != "" {
			violations = append(violations, violation{
				File:   normalized,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations
}

// importRule returns the broken rule, or "" when importPath is allowed from
// layer. Files directly under the module root (module.go, doc.go) wire the
// module and are only held to the cross-module rule.
func importRule(layer string, moduleRoot string, importPath string) string {
	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, moduleRoot) {
		return "cross-module imports are forbidden"
	}
	if isStdlib(importPath) {
		return ""
	}
	rule, ok := layerRules[layer]
	if !ok {
		return ""
	}
	if hasPrefix(importPath, modulePath+"/internal") {
		return layer + " must not import runtime infrastructure"
	}
	if layer != "adapters" && strings.Contains(importPath, "/adapters/") {
		return layer + " must not import adapters"
	}
	if !hasPrefix(importPath, modulePath) {
		if rule.external {
			return ""
		}
		return layer + " must not depend on third-party packages"
	}
	for _, allowed := range rule.allowed {
		if strings.HasPrefix(allowed, "/") {
			allowed = strings.TrimSuffix(moduleRoot+allowed, "/")
		}
		if hasPrefix(importPath, allowed) {
			return ""
		}
	}
	return layer + " import is outside explicit allowlist"
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
