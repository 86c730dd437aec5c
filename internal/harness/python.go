package harness

import (
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// pythonGenerator wraps each code body as an importable module file and emits
// a unittest-based equivalence test plus a perf_counter benchmark.
type pythonGenerator struct {
	cfg *config.Config
}

func (g *pythonGenerator) Language() optimization.Language {
	return optimization.Python
}

func (g *pythonGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, optimization.Python, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	replacer := strings.NewReplacer(
		"{{SAMPLES}}", strconv.Itoa(g.cfg.Engine.TestSamples),
		"{{ITERATIONS}}", strconv.Itoa(g.cfg.Python.BenchIterations),
	)

	files := map[string]string{
		"original.py":         ensureTrailingNewline(originalCode),
		"optimized.py":        ensureTrailingNewline(optimizedCode),
		"equivalence_test.py": replacer.Replace(pythonTestTemplate),
		"benchmark.py":        replacer.Replace(pythonBenchTemplate),
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	return &Descriptor{
		Dir:           dir,
		Language:      optimization.Python,
		OriginalFile:  "original.py",
		OptimizedFile: "optimized.py",
		TestFile:      "equivalence_test.py",
		BenchFile:     "benchmark.py",
	}, nil
}

const pythonArgInference = `
_ROTATION = ["int", "float", "str", "list", "dict", "bool"]

_KIND_MAP = {int: "int", float: "float", str: "str", list: "list", dict: "dict", bool: "bool"}


def _kind_for(param, index):
    ann = param.annotation
    if ann is not inspect.Parameter.empty and ann in _KIND_MAP:
        return _KIND_MAP[ann]
    if param.default is not inspect.Parameter.empty and param.default is not None:
        default_kind = type(param.default).__name__
        if default_kind in _ROTATION:
            return default_kind
    name = param.name.lower()
    if name in ("n", "i", "j", "k", "count", "num", "size", "index", "total") or "count" in name or "num" in name:
        return "int"
    if "ratio" in name or "rate" in name or "price" in name or name in ("x", "y", "z"):
        return "float"
    if "name" in name or "text" in name or "word" in name or name in ("s", "msg"):
        return "str"
    if "items" in name or "values" in name or "nums" in name or name.endswith("s"):
        return "list"
    if "map" in name or "dict" in name or "opts" in name:
        return "dict"
    if name.startswith("is_") or name.startswith("has_") or "flag" in name or "enabled" in name:
        return "bool"
    return _ROTATION[index % len(_ROTATION)]


def _kinds_for(fn):
    kinds = []
    for index, param in enumerate(inspect.signature(fn).parameters.values()):
        if param.kind in (inspect.Parameter.VAR_POSITIONAL, inspect.Parameter.VAR_KEYWORD):
            continue
        kinds.append(_kind_for(param, index))
    return kinds
`

const pythonTestTemplate = `"""Generated equivalence test: original vs optimized callables."""
import inspect
import random
import unittest

import original
import optimized

SAMPLES = {{SAMPLES}}
` + pythonArgInference + `

def _random_value(kind):
    if kind == "int":
        return random.randint(-1000, 1000)
    if kind == "float":
        return random.uniform(-1000.0, 1000.0)
    if kind == "str":
        return "".join(random.choice("abcdefghijklmnopqrstuvwxyz") for _ in range(random.randint(0, 12)))
    if kind == "list":
        return [random.randint(-100, 100) for _ in range(random.randint(0, 8))]
    if kind == "dict":
        return {"k%d" % i: random.randint(-100, 100) for i in range(random.randint(0, 5))}
    if kind == "bool":
        return random.choice([True, False])
    return None


class EquivalenceTest(unittest.TestCase):
    pass


def _add_case(name, original_fn, optimized_fn):
    kinds = _kinds_for(original_fn)

    def test(self):
        for _ in range(SAMPLES):
            args = [_random_value(kind) for kind in kinds]
            try:
                expected = original_fn(*args)
            except Exception:
                continue  # original rejects this sample; nothing to compare
            actual = optimized_fn(*args)
            self.assertEqual(expected, actual, "divergence in %s(%r)" % (name, args))

    setattr(EquivalenceTest, "test_%s" % name, test)


def _add_missing(name):
    def test(self):
        self.fail("optimized module is missing callable %s" % name)

    setattr(EquivalenceTest, "test_%s" % name, test)


for _name, _fn in inspect.getmembers(original, inspect.isfunction):
    if _name.startswith("_"):
        continue
    _opt = getattr(optimized, _name, None)
    if _opt is None:
        _add_missing(_name)
    else:
        _add_case(_name, _fn, _opt)


if __name__ == "__main__":
    unittest.main()
`

const pythonBenchTemplate = `"""Generated benchmark: fixed deterministic arguments, timed loops."""
import inspect
import json
import time

import original
import optimized

ITERATIONS = {{ITERATIONS}}
` + pythonArgInference + `
_FIXED = {
    "int": 7,
    "float": 3.5,
    "str": "benchmark",
    "list": [3, 1, 4, 1, 5, 9, 2, 6],
    "dict": {"a": 1, "b": 2, "c": 3},
    "bool": True,
}


def _timed(fn, args):
    start = time.perf_counter()
    for _ in range(ITERATIONS):
        fn(*args)
    return time.perf_counter() - start


def main():
    total_original = 0.0
    total_optimized = 0.0
    callables = {}

    for name, fn in inspect.getmembers(original, inspect.isfunction):
        if name.startswith("_"):
            continue
        opt = getattr(optimized, name, None)
        if opt is None:
            continue
        args = [_FIXED[kind] for kind in _kinds_for(fn)]
        try:
            fn(*args)
            opt(*args)
        except Exception:
            print("Skipping %s: not callable with inferred arguments" % name)
            continue

        orig_time = _timed(fn, args)
        opt_time = _timed(opt, args)
        improvement = 0.0 if orig_time == 0 else (orig_time - opt_time) / orig_time * 100
        callables[name] = improvement
        total_original += orig_time
        total_optimized += opt_time
        print("Benchmarked %s: original %.6fs optimized %.6fs (%+.2f%%)" % (name, orig_time, opt_time, improvement))

    overall = 0.0 if total_original == 0 else (total_original - total_optimized) / total_original * 100
    print("Overall performance change: %+.2f%%" % overall)
    print("BENCHMARK_RESULTS:")
    print(json.dumps({
        "original": {"time": total_original},
        "optimized": {"time": total_optimized},
        "improvement": overall,
        "callables": callables,
    }))
    print("END_BENCHMARK_RESULTS")


if __name__ == "__main__":
    main()
`
