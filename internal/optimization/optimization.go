// Package optimization defines the records the evaluation engine consumes:
// analyses, opportunities, and proposed optimizations.
package optimization

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Language represents a programming language an optimization targets.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Ruby       Language = "ruby"
	Go         Language = "go"
)

// Supported lists the languages with a dedicated harness strategy.
// Anything else falls through to the generic strategy.
var Supported = []Language{Python, JavaScript, TypeScript, Ruby, Go}

// Analysis is an upstream record describing one analyzed source file.
// It carries the language tag the whole evaluation resolves against.
type Analysis struct {
	ID         string    `json:"id"`
	Language   Language  `json:"language"`
	SourcePath string    `json:"source_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Opportunity is an identified location for a possible improvement.
type Opportunity struct {
	ID          string    `json:"id"`
	AnalysisID  string    `json:"analysis_id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Optimization is a concrete proposed rewrite tied to an opportunity.
// Immutable once created; the engine only reads it.
type Optimization struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	OriginalCode  string    `json:"original_code"`
	OptimizedCode string    `json:"optimized_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks that required fields are present.
func (o *Optimization) Validate() error {
	if o.OpportunityID == "" {
		return errors.New("optimization opportunity_id is required")
	}
	if strings.TrimSpace(o.OriginalCode) == "" {
		return errors.New("optimization original code is empty")
	}
	if strings.TrimSpace(o.OptimizedCode) == "" {
		return errors.New("optimization optimized code is empty")
	}
	return nil
}

// Fingerprint returns a stable content hash over the language tag and both
// code bodies. Used as a dedup key and as a sandbox name component.
func Fingerprint(lang Language, originalCode, optimizedCode string) string {
	payload := strings.Join([]string{string(lang), originalCode, optimizedCode}, "\x00")
	sum := blake3.Sum256([]byte(payload))
	return "blake3:" + hex.EncodeToString(sum[:])
}

// ParseLanguage converts a string to a Language type.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return Python, nil
	case "javascript", "js":
		return JavaScript, nil
	case "typescript", "ts":
		return TypeScript, nil
	case "ruby", "rb":
		return Ruby, nil
	case "go", "golang":
		return Go, nil
	default:
		return "", fmt.Errorf("unknown language: %s", s)
	}
}

// String returns the string representation of a Language.
func (l Language) String() string {
	return string(l)
}

// Extension returns the primary file extension for a language.
func (l Language) Extension() string {
	switch l {
	case Python:
		return ".py"
	case JavaScript:
		return ".cjs"
	case TypeScript:
		return ".ts"
	case Ruby:
		return ".rb"
	case Go:
		return ".go"
	default:
		return ".txt"
	}
}
