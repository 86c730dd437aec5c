package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// javascriptGenerator wraps each code body as a CommonJS module and emits a
// node assert-based equivalence test plus an hrtime benchmark. The benchmark
// reports throughput (hz): higher is better, and the improvement sign is
// normalized so positive means the optimization is faster.
type javascriptGenerator struct {
	cfg *config.Config
}

func (g *javascriptGenerator) Language() optimization.Language {
	return optimization.JavaScript
}

func (g *javascriptGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, optimization.JavaScript, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	funcs := scanScriptFunctions(originalCode)
	replacer := strings.NewReplacer(
		"{{SAMPLES}}", strconv.Itoa(g.cfg.Engine.TestSamples),
		"{{ITERATIONS}}", strconv.Itoa(g.cfg.JavaScript.BenchIterations),
		"{{PARAM_KINDS}}", paramKindsJSON(funcs),
		"{{ORIGINAL}}", "./original.cjs",
		"{{OPTIMIZED}}", "./optimized.cjs",
	)

	files := map[string]string{
		"original.cjs":         wrapCommonJS(originalCode),
		"optimized.cjs":        wrapCommonJS(optimizedCode),
		"equivalence.test.cjs": replacer.Replace(jsTestTemplate),
		"benchmark.cjs":        replacer.Replace(jsBenchTemplate),
		"package.json":         jsManifest,
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	return &Descriptor{
		Dir:           dir,
		Language:      optimization.JavaScript,
		OriginalFile:  "original.cjs",
		OptimizedFile: "optimized.cjs",
		TestFile:      "equivalence.test.cjs",
		BenchFile:     "benchmark.cjs",
		ManifestFile:  "package.json",
	}, nil
}

// wrapCommonJS appends a module.exports block exporting every top-level
// function the signature scan found, so original and optimized load
// side-by-side without symbol collision.
func wrapCommonJS(code string) string {
	funcs := scanScriptFunctions(code)
	if len(funcs) == 0 {
		return ensureTrailingNewline(code)
	}

	names := make([]string, 0, len(funcs))
	for _, fn := range funcs {
		names = append(names, fn.Name)
	}
	return ensureTrailingNewline(code) +
		fmt.Sprintf("\nmodule.exports = { %s };\n", strings.Join(names, ", "))
}

const jsManifest = `{
  "name": "optivet-sandbox",
  "private": true,
  "version": "0.0.0"
}
`

const jsValueHelpers = `
const ROTATION = ["int", "float", "str", "list", "map", "bool"];

function kindsFor(name, fn) {
  if (PARAM_KINDS[name]) {
    return PARAM_KINDS[name];
  }
  const kinds = [];
  for (let i = 0; i < fn.length; i++) {
    kinds.push(ROTATION[i % ROTATION.length]);
  }
  return kinds;
}
`

const jsTestTemplate = `// Generated equivalence test: original vs optimized callables.
"use strict";
const assert = require("node:assert");
const original = require("{{ORIGINAL}}");
const optimized = require("{{OPTIMIZED}}");

const SAMPLES = {{SAMPLES}};
const PARAM_KINDS = {{PARAM_KINDS}};
` + jsValueHelpers + `
function randomInt(lo, hi) {
  return Math.floor(Math.random() * (hi - lo + 1)) + lo;
}

function randomValue(kind) {
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
      const out = [];
      const n = randomInt(0, 8);
      for (let i = 0; i < n; i++) {
        out.push(randomInt(-100, 100));
      }
      return out;
    }
    case "map": {
      const out = {};
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

for (const name of Object.keys(original)) {
  const fn = original[name];
  if (typeof fn !== "function") {
    continue;
  }
  const opt = optimized[name];
  if (typeof opt !== "function") {
    console.error("missing callable " + name + " in optimized module");
    failed++;
    continue;
  }

  const kinds = kindsFor(name, fn);
  for (let sample = 0; sample < SAMPLES; sample++) {
    const args = kinds.map(randomValue);
    let expected;
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

const jsBenchTemplate = `// Generated benchmark: fixed deterministic arguments, throughput in ops/s.
"use strict";
const original = require("{{ORIGINAL}}");
const optimized = require("{{OPTIMIZED}}");

const ITERATIONS = {{ITERATIONS}};
const PARAM_KINDS = {{PARAM_KINDS}};
` + jsValueHelpers + `
const FIXED = {
  int: 7,
  float: 3.5,
  str: "benchmark",
  list: [3, 1, 4, 1, 5, 9, 2, 6],
  map: { a: 1, b: 2, c: 3 },
  bool: true,
};

function measureHz(fn, args) {
  const start = process.hrtime.bigint();
  for (let i = 0; i < ITERATIONS; i++) {
    fn(...args);
  }
  const elapsed = Number(process.hrtime.bigint() - start) / 1e9;
  return elapsed === 0 ? 0 : ITERATIONS / elapsed;
}

let totalOriginal = 0;
let totalOptimized = 0;
const callables = {};

for (const name of Object.keys(original)) {
  const fn = original[name];
  if (typeof fn !== "function") {
    continue;
  }
  const opt = optimized[name];
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
  callables[name] = improvement;
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
  callables: callables,
}));
console.log("END_BENCHMARK_RESULTS");
`
