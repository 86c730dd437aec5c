package harness

import (
	"encoding/json"
	"regexp"
	"strings"
)

// scannedFunc is one top-level function recovered by a static signature scan.
type scannedFunc struct {
	Name     string
	Exported bool // Declaration already carries an export keyword
	Params   []scannedParam
}

type scannedParam struct {
	Name       string
	Annotation string // TS type annotation, when present
	Default    string // Default value literal, when present
}

var (
	funcDeclRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)\s*\(([^)]*)\)`)
	arrowDeclRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(([^)]*)\)\s*(?::\s*[\w<>\[\]. |]+\s*)?=>`)
)

// scanScriptFunctions extracts top-level function declarations from
// javascript/typescript source. It is a best-effort signature scan; the
// generated tests still enumerate the loaded module at runtime and only use
// this table for argument typing.
func scanScriptFunctions(code string) []scannedFunc {
	var funcs []scannedFunc
	seen := make(map[string]bool)

	collect := func(matches [][]string) {
		for _, m := range matches {
			name := m[1]
			if seen[name] || strings.HasPrefix(name, "_") {
				continue
			}
			seen[name] = true
			funcs = append(funcs, scannedFunc{
				Name:     name,
				Exported: strings.Contains(m[0], "export"),
				Params:   parseParams(m[2]),
			})
		}
	}
	collect(funcDeclRe.FindAllStringSubmatch(code, -1))
	collect(arrowDeclRe.FindAllStringSubmatch(code, -1))

	return funcs
}

// parseParams splits a parameter list into names, annotations, and defaults.
// Nested generics with commas are not handled; the kind inference falls back
// to the rotation for anything it cannot read.
func parseParams(list string) []scannedParam {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	var params []scannedParam
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "...") {
			continue
		}

		var p scannedParam
		if idx := strings.Index(raw, "="); idx >= 0 {
			p.Default = strings.TrimSpace(raw[idx+1:])
			raw = strings.TrimSpace(raw[:idx])
		}
		if idx := strings.Index(raw, ":"); idx >= 0 {
			p.Annotation = strings.TrimSpace(raw[idx+1:])
			raw = strings.TrimSpace(raw[:idx])
		}
		p.Name = strings.TrimSuffix(raw, "?")
		params = append(params, p)
	}
	return params
}

// argKinds is the rotation of inferred argument kinds shared by the
// generated scripts.
var argKinds = []string{"int", "float", "str", "list", "map", "bool"}

// kindFor infers an argument kind from a scanned parameter, falling back to
// the rotation by position.
func kindFor(p scannedParam, index int) string {
	if k := kindFromAnnotation(p.Annotation); k != "" {
		return k
	}
	if k := kindFromDefault(p.Default); k != "" {
		return k
	}
	if k := kindFromName(p.Name); k != "" {
		return k
	}
	return argKinds[index%len(argKinds)]
}

func kindFromAnnotation(ann string) string {
	ann = strings.TrimSpace(ann)
	switch {
	case ann == "":
		return ""
	case strings.HasSuffix(ann, "[]"), strings.HasPrefix(ann, "Array<"):
		return "list"
	case ann == "number":
		return "int"
	case ann == "string":
		return "str"
	case ann == "boolean":
		return "bool"
	case strings.HasPrefix(ann, "Record<"), strings.HasPrefix(ann, "Map<"), ann == "object":
		return "map"
	default:
		return ""
	}
}

func kindFromDefault(def string) string {
	def = strings.TrimSpace(def)
	switch {
	case def == "":
		return ""
	case def == "true", def == "false":
		return "bool"
	case strings.HasPrefix(def, "\""), strings.HasPrefix(def, "'"):
		return "str"
	case strings.HasPrefix(def, "["):
		return "list"
	case strings.HasPrefix(def, "{"):
		return "map"
	case strings.ContainsAny(def, "0123456789"):
		if strings.Contains(def, ".") {
			return "float"
		}
		return "int"
	default:
		return ""
	}
}

func kindFromName(name string) string {
	name = strings.ToLower(name)
	switch {
	case name == "n", name == "i", name == "j", name == "k",
		strings.Contains(name, "count"), strings.Contains(name, "num"),
		strings.Contains(name, "size"), strings.Contains(name, "index"):
		return "int"
	case strings.Contains(name, "ratio"), strings.Contains(name, "rate"),
		strings.Contains(name, "price"), name == "x", name == "y", name == "z":
		return "float"
	case strings.Contains(name, "name"), strings.Contains(name, "text"),
		strings.Contains(name, "word"), name == "s", name == "msg":
		return "str"
	case strings.Contains(name, "items"), strings.Contains(name, "values"),
		strings.Contains(name, "nums"), strings.HasSuffix(name, "s"):
		return "list"
	case strings.Contains(name, "map"), strings.Contains(name, "dict"),
		strings.Contains(name, "opts"):
		return "map"
	case strings.HasPrefix(name, "is"), strings.HasPrefix(name, "has"),
		strings.Contains(name, "flag"), strings.Contains(name, "enabled"):
		return "bool"
	default:
		return ""
	}
}

// paramKindsJSON renders the per-callable kind table embedded in generated
// scripts.
func paramKindsJSON(funcs []scannedFunc) string {
	table := make(map[string][]string, len(funcs))
	for _, fn := range funcs {
		kinds := make([]string, 0, len(fn.Params))
		for i, p := range fn.Params {
			kinds = append(kinds, kindFor(p, i))
		}
		table[fn.Name] = kinds
	}
	data, err := json.Marshal(table)
	if err != nil {
		return "{}"
	}
	return string(data)
}
