package harness

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// goGenerator wraps each code body as its own package so both import
// side-by-side, then statically scans the original's exported functions to
// generate an equivalence test with baked randomized argument literals and a
// benchmark with fixed arguments. Runtime introspection is not available in
// Go, so the signature scan stands in for it; functions whose parameter or
// result types fall outside the supported set are left out of the generated
// files (the compile stage still covers them).
type goGenerator struct {
	cfg *config.Config
}

func (g *goGenerator) Language() optimization.Language {
	return optimization.Go
}

func (g *goGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, optimization.Go, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	originalSrc := wrapGoPackage("original", originalCode)
	optimizedSrc := wrapGoPackage("optimized", optimizedCode)
	funcs := scanGoFunctions(originalSrc)

	files := map[string]string{
		"go.mod":                 "module sandbox\n\ngo 1.25\n",
		"original/original.go":   originalSrc,
		"optimized/optimized.go": optimizedSrc,
		"equivalence_test.go":    renderGoTest(funcs, g.cfg.Engine.TestSamples),
		"main.go":                renderGoBench(funcs, g.cfg.Go.BenchIterations),
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	return &Descriptor{
		Dir:           dir,
		Language:      optimization.Go,
		OriginalFile:  "original/original.go",
		OptimizedFile: "optimized/optimized.go",
		TestFile:      "equivalence_test.go",
		BenchFile:     "main.go",
		ManifestFile:  "go.mod",
	}, nil
}

var goPackageLineRe = regexp.MustCompile(`(?m)^package\s+\w+\s*$`)

// wrapGoPackage replaces (or prepends) the package clause so the two code
// bodies live in distinct importable packages.
func wrapGoPackage(pkg, code string) string {
	if goPackageLineRe.MatchString(code) {
		return ensureTrailingNewline(goPackageLineRe.ReplaceAllString(code, "package "+pkg))
	}
	return "package " + pkg + "\n\n" + ensureTrailingNewline(code)
}

// goFunc is an exported function eligible for generated comparisons.
type goFunc struct {
	Name       string
	ParamTypes []string
}

// goSupportedTypes maps a type's source form to its literal generators.
var goSupportedTypes = map[string]bool{
	"int": true, "int64": true, "float64": true, "string": true, "bool": true,
	"[]int": true, "[]string": true, "map[string]int": true,
}

// scanGoFunctions parses the wrapped original package and returns exported
// top-level functions with exactly one result and supported parameter types.
func scanGoFunctions(src string) []goFunc {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "original.go", src, 0)
	if err != nil {
		return nil // syntactically invalid; the compile stage reports it
	}

	var funcs []goFunc
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Type.TypeParams != nil || !fn.Name.IsExported() {
			continue
		}
		if fn.Type.Results == nil || len(fn.Type.Results.List) != 1 || len(fn.Type.Results.List[0].Names) > 1 {
			continue
		}

		var params []string
		eligible := true
		for _, field := range fn.Type.Params.List {
			typ := goTypeString(field.Type)
			if !goSupportedTypes[typ] {
				eligible = false
				break
			}
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				params = append(params, typ)
			}
		}
		if !eligible {
			continue
		}
		funcs = append(funcs, goFunc{Name: fn.Name.Name, ParamTypes: params})
	}
	return funcs
}

func goTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + goTypeString(t.Elt)
		}
	case *ast.MapType:
		return "map[" + goTypeString(t.Key) + "]" + goTypeString(t.Value)
	}
	return ""
}

// randomGoLiteral renders a fresh randomized literal for a supported type.
func randomGoLiteral(typ string) string {
	switch typ {
	case "int":
		return strconv.Itoa(rand.IntN(2001) - 1000)
	case "int64":
		return fmt.Sprintf("int64(%d)", rand.IntN(2001)-1000)
	case "float64":
		return fmt.Sprintf("%.4f", rand.Float64()*2000-1000)
	case "string":
		letters := "abcdefghijklmnopqrstuvwxyz"
		n := rand.IntN(13)
		b := make([]byte, n)
		for i := range b {
			b[i] = letters[rand.IntN(len(letters))]
		}
		return strconv.Quote(string(b))
	case "bool":
		if rand.IntN(2) == 0 {
			return "false"
		}
		return "true"
	case "[]int":
		n := rand.IntN(9)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = strconv.Itoa(rand.IntN(201) - 100)
		}
		return "[]int{" + strings.Join(parts, ", ") + "}"
	case "[]string":
		n := rand.IntN(5)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = strconv.Quote(string(rune('a' + rand.IntN(26))))
		}
		return "[]string{" + strings.Join(parts, ", ") + "}"
	case "map[string]int":
		n := rand.IntN(5)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("%q: %d", fmt.Sprintf("k%d", i), rand.IntN(201)-100)
		}
		return "map[string]int{" + strings.Join(parts, ", ") + "}"
	}
	return "nil"
}

func fixedGoLiteral(typ string) string {
	switch typ {
	case "int":
		return "7"
	case "int64":
		return "int64(7)"
	case "float64":
		return "3.5"
	case "string":
		return `"benchmark"`
	case "bool":
		return "true"
	case "[]int":
		return "[]int{3, 1, 4, 1, 5, 9, 2, 6}"
	case "[]string":
		return `[]string{"alpha", "beta", "gamma"}`
	case "map[string]int":
		return `map[string]int{"a": 1, "b": 2, "c": 3}`
	}
	return "nil"
}

func renderGoTest(funcs []goFunc, samples int) string {
	var sb strings.Builder
	sb.WriteString("// Generated equivalence test: original vs optimized callables.\npackage main\n")
	if len(funcs) == 0 {
		return sb.String()
	}

	sb.WriteString("\nimport (\n\t\"reflect\"\n\t\"testing\"\n\n\t\"sandbox/optimized\"\n\t\"sandbox/original\"\n)\n")

	for _, fn := range funcs {
		fmt.Fprintf(&sb, "\nfunc TestEquivalence%s(t *testing.T) {\n", fn.Name)
		if len(fn.ParamTypes) == 0 {
			sb.WriteString(fmt.Sprintf("\twant := original.%s()\n\tgot := optimized.%s()\n", fn.Name, fn.Name))
			fmt.Fprintf(&sb, "\tif !reflect.DeepEqual(got, want) {\n\t\tt.Errorf(\"%s diverged: got %%v, want %%v\", got, want)\n\t}\n}\n", fn.Name)
			continue
		}

		sb.WriteString("\tcases := []struct {\n")
		for i, typ := range fn.ParamTypes {
			fmt.Fprintf(&sb, "\t\targ%d %s\n", i, typ)
		}
		sb.WriteString("\t}{\n")
		for s := 0; s < samples; s++ {
			sb.WriteString("\t\t{")
			for i, typ := range fn.ParamTypes {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(randomGoLiteral(typ))
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("\t}\n")

		args := make([]string, len(fn.ParamTypes))
		for i := range fn.ParamTypes {
			args[i] = fmt.Sprintf("tc.arg%d", i)
		}
		argList := strings.Join(args, ", ")
		sb.WriteString("\tfor i, tc := range cases {\n")
		fmt.Fprintf(&sb, "\t\twant := original.%s(%s)\n", fn.Name, argList)
		fmt.Fprintf(&sb, "\t\tgot := optimized.%s(%s)\n", fn.Name, argList)
		sb.WriteString("\t\tif !reflect.DeepEqual(got, want) {\n")
		fmt.Fprintf(&sb, "\t\t\tt.Errorf(\"case %%d: %s diverged: got %%v, want %%v\", i, got, want)\n", fn.Name)
		sb.WriteString("\t\t}\n\t}\n}\n")
	}
	return sb.String()
}

func renderGoBench(funcs []goFunc, iterations int) string {
	var sb strings.Builder
	sb.WriteString("// Generated benchmark: fixed deterministic arguments, timed loops.\npackage main\n")

	if len(funcs) == 0 {
		sb.WriteString("\nimport \"fmt\"\n\nfunc main() {\n")
		sb.WriteString("\tfmt.Println(\"Overall performance change: +0.00%\")\n")
		sb.WriteString("\tfmt.Println(\"BENCHMARK_RESULTS:\")\n")
		sb.WriteString("\tfmt.Println(`{\"original\": {\"time\": 0}, \"optimized\": {\"time\": 0}, \"improvement\": 0}`)\n")
		sb.WriteString("\tfmt.Println(\"END_BENCHMARK_RESULTS\")\n}\n")
		return sb.String()
	}

	sb.WriteString("\nimport (\n\t\"encoding/json\"\n\t\"fmt\"\n\t\"time\"\n\n\t\"sandbox/optimized\"\n\t\"sandbox/original\"\n)\n")
	fmt.Fprintf(&sb, "\nconst iterations = %d\n", iterations)
	sb.WriteString(`
func main() {
	totalOriginal := 0.0
	totalOptimized := 0.0
	callables := map[string]float64{}
`)

	for _, fn := range funcs {
		args := make([]string, len(fn.ParamTypes))
		for i, typ := range fn.ParamTypes {
			args[i] = fixedGoLiteral(typ)
		}
		argList := strings.Join(args, ", ")

		sb.WriteString("\t{\n")
		sb.WriteString("\t\tstart := time.Now()\n")
		fmt.Fprintf(&sb, "\t\tfor i := 0; i < iterations; i++ {\n\t\t\toriginal.%s(%s)\n\t\t}\n", fn.Name, argList)
		sb.WriteString("\t\torigSec := time.Since(start).Seconds()\n")
		sb.WriteString("\t\tstart = time.Now()\n")
		fmt.Fprintf(&sb, "\t\tfor i := 0; i < iterations; i++ {\n\t\t\toptimized.%s(%s)\n\t\t}\n", fn.Name, argList)
		sb.WriteString("\t\toptSec := time.Since(start).Seconds()\n")
		sb.WriteString("\t\timprovement := 0.0\n\t\tif origSec > 0 {\n\t\t\timprovement = (origSec - optSec) / origSec * 100\n\t\t}\n")
		fmt.Fprintf(&sb, "\t\tcallables[%q] = improvement\n", fn.Name)
		sb.WriteString("\t\ttotalOriginal += origSec\n\t\ttotalOptimized += optSec\n")
		fmt.Fprintf(&sb, "\t\tfmt.Printf(\"Benchmarked %s: original %%.6fs optimized %%.6fs (%%+.2f%%%%)\\n\", origSec, optSec, improvement)\n", fn.Name)
		sb.WriteString("\t}\n")
	}

	sb.WriteString(`
	overall := 0.0
	if totalOriginal > 0 {
		overall = (totalOriginal - totalOptimized) / totalOriginal * 100
	}
	fmt.Printf("Overall performance change: %+.2f%%\n", overall)
	payload, _ := json.Marshal(map[string]any{
		"original":    map[string]float64{"time": totalOriginal},
		"optimized":   map[string]float64{"time": totalOptimized},
		"improvement": overall,
		"callables":   callables,
	})
	fmt.Println("BENCHMARK_RESULTS:")
	fmt.Println(string(payload))
	fmt.Println("END_BENCHMARK_RESULTS")
}
`)
	return sb.String()
}
