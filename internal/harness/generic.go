package harness

import (
	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// genericGenerator handles languages without a dedicated strategy. It never
// executes code: the sandbox holds only the two source files, and the
// performance signal is the byte-size delta between them.
type genericGenerator struct {
	cfg  *config.Config
	lang optimization.Language
}

func (g *genericGenerator) Language() optimization.Language {
	return g.lang
}

func (g *genericGenerator) CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error) {
	dir, err := newSandboxDir(g.cfg, g.lang, originalCode, optimizedCode)
	if err != nil {
		return nil, err
	}

	const (
		originalFile  = "original.txt"
		optimizedFile = "optimized.txt"
	)
	files := map[string]string{
		originalFile:  originalCode,
		optimizedFile: optimizedCode,
	}
	if err := writeSandbox(dir, files); err != nil {
		return nil, err
	}

	origBytes := len(originalCode)
	optBytes := len(optimizedCode)
	var improvement float64
	if origBytes > 0 {
		improvement = float64(origBytes-optBytes) / float64(origBytes) * 100
	}

	return &Descriptor{
		Dir:           dir,
		Language:      g.lang,
		OriginalFile:  originalFile,
		OptimizedFile: optimizedFile,
		SizeDelta: &SizeDelta{
			OriginalBytes:  origBytes,
			OptimizedBytes: optBytes,
			Improvement:    improvement,
		},
	}, nil
}
