package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

type violation struct {
	file string
	imp  string
	rule string
}

func TestImportBoundaries(t *testing.T) {
	root, modulePath := moduleRoot(t)

	violations := walkImports(t, root, func(rel, imp string) (string, bool) {
		for _, bad := range disallowedImports(modulePath, layerFor(rel)) {
			if strings.HasPrefix(imp, bad) {
				return bad, true
			}
		}
		return "", false
	})
	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("import boundary violations:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q (disallowed: %q)\n", v.file, v.imp, v.rule)
		}
		t.Fatal(b.String())
	}
}

// Backing-store clients are dialled once during wiring; everything else receives them.
func TestClientsOnlyImportedByApp(t *testing.T) {
	root, modulePath := moduleRoot(t)
	clients := modulePath + "/internal/clients/"

	violations := walkImports(t, root, func(rel, imp string) (string, bool) {
		if !strings.HasPrefix(imp, clients) {
			return "", false
		}
		if strings.HasPrefix(rel, "internal/app/") || strings.HasPrefix(rel, "internal/clients/") {
			return "", false
		}
		return clients, true
	})
	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("internal/clients imports found outside internal/app:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q\n", v.file, v.imp)
		}
		t.Fatal(b.String())
	}
}

func moduleRoot(t *testing.T) (string, string) {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	modulePath, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}
	return root, modulePath
}

func walkImports(t *testing.T, root string, check func(rel, imp string) (string, bool)) []violation {
	t.Helper()
	fset := token.NewFileSet()
	var violations []violation

	walkErr := filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "node_modules", ".gocache":
				return filepath.SkipDir
			default:
				return nil
			}
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			if spec == nil || spec.Path == nil {
				continue
			}
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if rule, bad := check(rel, imp); bad {
				violations = append(violations, violation{file: rel, imp: imp, rule: rule})
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}
	return violations
}

func layerFor(rel string) string {
	switch {
	case strings.HasPrefix(rel, "internal/platform/"), strings.HasPrefix(rel, "internal/pkg/"):
		return "platform"
	case strings.HasPrefix(rel, "internal/domain/"), strings.HasPrefix(rel, "internal/identity/"):
		return "domain"
	case strings.HasPrefix(rel, "internal/data/"):
		return "data"
	case strings.HasPrefix(rel, "internal/services/"),
		strings.HasPrefix(rel, "internal/ingestion/"),
		strings.HasPrefix(rel, "internal/detection/"),
		strings.HasPrefix(rel, "internal/hierarchy/"):
		return "services"
	case strings.HasPrefix(rel, "internal/http/"):
		return "http"
	default:
		return ""
	}
}

func disallowedImports(modulePath string, layer string) []string {
	p := func(s string) string { return modulePath + "/internal/" + s + "/" }
	switch layer {
	case "platform":
		return []string{p("domain"), p("data"), p("services"), p("ingestion"), p("detection"), p("hierarchy"), p("http"), p("app")}
	case "domain":
		return []string{p("data"), p("services"), p("ingestion"), p("detection"), p("hierarchy"), p("http"), p("app")}
	case "data":
		return []string{p("services"), p("ingestion"), p("detection"), p("hierarchy"), p("http"), p("app")}
	case "services":
		return []string{p("http"), p("app"), p("cli")}
	case "http":
		return []string{p("app"), p("cli"), p("data")}
	default:
		return nil
	}
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			return "", fmt.Errorf("empty module path in %s", goModPath)
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
