package harness

import (
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// rubyGenerator wraps each code body in a named module with extend self, so
// top-level defs become module callables and both files load side-by-side.
// Tests use minitest; the benchmark reports elapsed time (lower is better)
// with the sign normalized so positive improvement means faster.
type rubyGenerator struct {
	cfg *config.Config
}

func (g *rubyGenerator) Language() optimization.Language {
	return optimization.Ruby
}

func (g *rubyGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, optimization.Ruby, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	replacer := strings.NewReplacer(
		"{{SAMPLES}}", strconv.Itoa(g.cfg.Engine.TestSamples),
		"{{ITERATIONS}}", strconv.Itoa(g.cfg.Ruby.BenchIterations),
	)

	files := map[string]string{
		"original.rb":         wrapRubyModule("Original", originalCode),
		"optimized.rb":        wrapRubyModule("Optimized", optimizedCode),
		"equivalence_test.rb": replacer.Replace(rubyTestTemplate),
		"benchmark.rb":        replacer.Replace(rubyBenchTemplate),
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	return &Descriptor{
		Dir:           dir,
		Language:      optimization.Ruby,
		OriginalFile:  "original.rb",
		OptimizedFile: "optimized.rb",
		TestFile:      "equivalence_test.rb",
		BenchFile:     "benchmark.rb",
	}, nil
}

func wrapRubyModule(name, code string) string {
	return "module " + name + "\n  extend self\n\n" + ensureTrailingNewline(code) + "end\n"
}

const rubyArgInference = `
ROTATION = %w[int float str list map bool].freeze

def kind_for(name, index)
  name = name.to_s.downcase
  return "int" if %w[n i j k count num size index total].include?(name) || name.include?("count") || name.include?("num")
  return "float" if name.include?("ratio") || name.include?("rate") || name.include?("price") || %w[x y z].include?(name)
  return "str" if name.include?("name") || name.include?("text") || name.include?("word") || %w[s msg].include?(name)
  return "list" if name.include?("items") || name.include?("values") || name.include?("nums") || name.end_with?("s")
  return "map" if name.include?("map") || name.include?("dict") || name.include?("opts")
  return "bool" if name.start_with?("is_", "has_") || name.include?("flag") || name.include?("enabled")

  ROTATION[index % ROTATION.length]
end

def kinds_for(method)
  kinds = []
  method.parameters.each_with_index do |(ptype, pname), index|
    next unless %i[req opt].include?(ptype)

    kinds << kind_for(pname, index)
  end
  kinds
end
`

const rubyTestTemplate = `# Generated equivalence test: original vs optimized callables.
require "minitest/autorun"
require_relative "original"
require_relative "optimized"

SAMPLES = {{SAMPLES}}
` + rubyArgInference + `
def random_value(kind)
  case kind
  when "int" then rand(-1000..1000)
  when "float" then rand * 2000 - 1000
  when "str" then Array.new(rand(0..12)) { ("a".."z").to_a.sample }.join
  when "list" then Array.new(rand(0..8)) { rand(-100..100) }
  when "map" then Array.new(rand(0..5)) { |i| ["k#{i}", rand(-100..100)] }.to_h
  when "bool" then [true, false].sample
  end
end

class EquivalenceTest < Minitest::Test
  Original.public_instance_methods(false).each do |method_name|
    next if method_name.to_s.start_with?("_")

    define_method("test_#{method_name}") do
      flunk("optimized module is missing callable #{method_name}") unless Optimized.respond_to?(method_name)

      kinds = kinds_for(Original.method(method_name))
      SAMPLES.times do
        args = kinds.map { |kind| random_value(kind) }
        begin
          expected = Original.public_send(method_name, *args)
        rescue StandardError
          next # original rejects this sample; nothing to compare
        end
        actual = Optimized.public_send(method_name, *args)
        assert_equal expected, actual, "divergence in #{method_name}(#{args.inspect})"
      end
    end
  end
end
`

const rubyBenchTemplate = `# Generated benchmark: fixed deterministic arguments, timed loops.
require "json"
require_relative "original"
require_relative "optimized"

ITERATIONS = {{ITERATIONS}}
` + rubyArgInference + `
FIXED = {
  "int" => 7,
  "float" => 3.5,
  "str" => "benchmark",
  "list" => [3, 1, 4, 1, 5, 9, 2, 6],
  "map" => { "a" => 1, "b" => 2, "c" => 3 },
  "bool" => true
}.freeze

def timed(receiver, name, args)
  start = Process.clock_gettime(Process::CLOCK_MONOTONIC)
  ITERATIONS.times { receiver.public_send(name, *args) }
  Process.clock_gettime(Process::CLOCK_MONOTONIC) - start
end

total_original = 0.0
total_optimized = 0.0
callables = {}

Original.public_instance_methods(false).each do |name|
  next if name.to_s.start_with?("_")
  next unless Optimized.respond_to?(name)

  args = kinds_for(Original.method(name)).map { |kind| FIXED[kind] }
  begin
    Original.public_send(name, *args)
    Optimized.public_send(name, *args)
  rescue StandardError
    puts "Skipping #{name}: not callable with inferred arguments"
    next
  end

  orig_time = timed(Original, name, args)
  opt_time = timed(Optimized, name, args)
  improvement = orig_time.zero? ? 0.0 : (orig_time - opt_time) / orig_time * 100
  callables[name.to_s] = improvement
  total_original += orig_time
  total_optimized += opt_time
  puts format("Benchmarked %s: original %.6fs optimized %.6fs (%+.2f%%)", name, orig_time, opt_time, improvement)
end

overall = total_original.zero? ? 0.0 : (total_original - total_optimized) / total_original * 100
puts format("Overall performance change: %+.2f%%", overall)
puts "BENCHMARK_RESULTS:"
puts JSON.generate({
  "original" => { "time" => total_original },
  "optimized" => { "time" => total_optimized },
  "improvement" => overall,
  "callables" => callables
})
puts "END_BENCHMARK_RESULTS"
`
