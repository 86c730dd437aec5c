package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// typescriptGenerator wraps each code body as an ES module and emits an
// equivalence test and benchmark runnable via node's type stripping. The
// compile stage uses tsc as a standalone syntax/type checker; the test and
// benchmark reuse the javascript templates' conventions (hz throughput).
type typescriptGenerator struct {
	cfg *config.Config
}

func (g *typescriptGenerator) Language() optimization.Language {
	return optimization.TypeScript
}

func (g *typescriptGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, optimization.TypeScript, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	funcs := scanScriptFunctions(originalCode)
	replacer := strings.NewReplacer(
		"{{SAMPLES}}", strconv.Itoa(g.cfg.Engine.TestSamples),
		"{{ITERATIONS}}", strconv.Itoa(g.cfg.TypeScript.BenchIterations),
		"{{PARAM_KINDS}}", paramKindsJSON(funcs),
	)

	files := map[string]string{
		"original.ts":         wrapTypeScript(originalCode),
		"optimized.ts":        wrapTypeScript(optimizedCode),
		"equivalence.test.ts": replacer.Replace(tsTestTemplate),
		"benchmark.ts":        replacer.Replace(tsBenchTemplate),
		"package.json":        tsManifest,
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	return &Descriptor{
		Dir:           dir,
		Language:      optimization.TypeScript,
		OriginalFile:  "original.ts",
		OptimizedFile: "optimized.ts",
		TestFile:      "equivalence.test.ts",
		BenchFile:     "benchmark.ts",
		ManifestFile:  "package.json",
	}, nil
}

// wrapTypeScript appends an export statement for top-level functions not
// already exported, so both modules expose their callable surface.
func wrapTypeScript(code string) string {
	var unexported []string
	for _, fn := range scanScriptFunctions(code) {
		if !fn.Exported {
			unexported = append(unexported, fn.Name)
		}
	}
	if len(unexported) == 0 {
		return ensureTrailingNewline(code)
	}
	return ensureTrailingNewline(code) +
		fmt.Sprintf("\nexport { %s };\n", strings.Join(unexported, ", "))
}

const tsManifest = `{
  "name": "optivet-sandbox",
  "private": true,
  "version": "0.0.0",
  "type": "module"
}
`

const tsValueHelpers = `
const ROTATION: string[] = ["int", "float", "str", "list", "map", "bool"];

function kindsFor(name: string, fn: Function): string[] {
  if (PARAM_KINDS[name]) {
    return PARAM_KINDS[name];
  }
  const kinds: string[] = [];
  for (let i = 0; i < fn.length; i++) {
    kinds.push(ROTATION[i % ROTATION.length]);
  }
  return kinds;
}

function callables(mod: Record<string, unknown>): string[] {
  return Object.keys(mod).filter((name) => typeof mod[name] === "function");
}
`

const tsTestTemplate = `// Generated equivalence test: original vs optimized callables.
import assert from "node:assert";
import * as original from "./original.ts";
import * as optimized from "./optimized.ts";

const SAMPLES = {{SAMPLES}};
const PARAM_KINDS: Record<string, string[]> = {{PARAM_KINDS}};
` + tsValueHelpers + `
function randomInt(lo: number, hi: number): number {
  return Math.floor(Math.random() * (hi - lo + 1)) + lo;
}

function randomValue(kind: string): any {
  switch (kind) {
    case "int":
      return randomInt(-1000, 1000);
    case "float":
      return Math.random() * 2000 - 1000;
    case "str": {
      const letters = "abcdefghijklmnopqrstuvwxyz";
      let out = "";
      const n = randomInt(0, 12);
      for (let i = 0; i < n; i++) {
        out += letters[randomInt(0, letters.length - 1)];
      }
      return out;
    }
    case "list": {
      const out: number[] = [];
      const n = randomInt(0, 8);
      for (let i = 0; i < n; i++) {
        out.push(randomInt(-100, 100));
      }
      return out;
    }
    case "map": {
      const out: Record<string, number> = {};
      const n = randomInt(0, 5);
      for (let i = 0; i < n; i++) {
        out["k" + i] = randomInt(-100, 100);
      }
      return out;
    }
    case "bool":
      return Math.random() < 0.5;
    default:
      return null;
  }
}

let passed = 0;
let failed = 0;

for (const name of callables(original as Record<string, unknown>)) {
  const fn = (original as Record<string, any>)[name];
  const opt = (optimized as Record<string, any>)[name];
  if (typeof opt !== "function") {
    console.error("missing callable " + name + " in optimized module");
    failed++;
    continue;
  }

  const kinds = kindsFor(name, fn);
  for (let sample = 0; sample < SAMPLES; sample++) {
    const args = kinds.map(randomValue);
    let expected: any;
    try {
      expected = fn(...args);
    } catch (err) {
      continue; // original rejects this sample; nothing to compare
    }
    try {
      assert.deepStrictEqual(opt(...args), expected);
      passed++;
    } catch (err) {
      failed++;
      console.error("divergence in " + name + "(" + JSON.stringify(args) + ")");
    }
  }
}

console.log(passed + " passed, " + failed + " failed");
process.exit(failed === 0 ? 0 : 1);
`

const tsBenchTemplate = `// Generated benchmark: fixed deterministic arguments, throughput in ops/s.
import * as original from "./original.ts";
import * as optimized from "./optimized.ts";

const ITERATIONS = {{ITERATIONS}};
const PARAM_KINDS: Record<string, string[]> = {{PARAM_KINDS}};
` + tsValueHelpers + `
const FIXED: Record<string, any> = {
  int: 7,
  float: 3.5,
  str: "benchmark",
  list: [3, 1, 4, 1, 5, 9, 2, 6],
  map: { a: 1, b: 2, c: 3 },
  bool: true,
};

function measureHz(fn: Function, args: any[]): number {
  const start = process.hrtime.bigint();
  for (let i = 0; i < ITERATIONS; i++) {
    fn(...args);
  }
  const elapsed = Number(process.hrtime.bigint() - start) / 1e9;
  return elapsed === 0 ? 0 : ITERATIONS / elapsed;
}

let totalOriginal = 0;
let totalOptimized = 0;
const perCallable: Record<string, number> = {};

for (const name of callables(original as Record<string, unknown>)) {
  const fn = (original as Record<string, any>)[name];
  const opt = (optimized as Record<string, any>)[name];
  if (typeof opt !== "function") {
    continue;
  }

  const args = kindsFor(name, fn).map((kind) => FIXED[kind]);
  try {
    fn(...args);
    opt(...args);
  } catch (err) {
    console.log("Skipping " + name + ": not callable with inferred arguments");
    continue;
  }

  const origHz = measureHz(fn, args);
  const optHz = measureHz(opt, args);
  const improvement = origHz === 0 ? 0 : ((optHz - origHz) / origHz) * 100;
  perCallable[name] = improvement;
  totalOriginal += origHz;
  totalOptimized += optHz;
  console.log(
    "Benchmarked " + name + ": original " + origHz.toFixed(1) +
    " ops/s optimized " + optHz.toFixed(1) + " ops/s (" +
    improvement.toFixed(2) + "%)"
  );
}

const overall = totalOriginal === 0 ? 0 : ((totalOptimized - totalOriginal) / totalOriginal) * 100;
const sign = overall >= 0 ? "+" : "";
console.log("Overall performance change: " + sign + overall.toFixed(2) + "%");
console.log("BENCHMARK_RESULTS:");
console.log(JSON.stringify({
  original: { hz: totalOriginal },
  optimized: { hz: totalOptimized },
  improvement: overall,
  callables: perCallable,
}));
console.log("END_BENCHMARK_RESULTS");
`
