package zipwright

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Plan is the selector's verdict for one file: how to compress it and
// which reversible transforms to apply first.
type Plan struct {
	Method     Method
	Level      int
	Transforms TransformFlags
}

// Policy holds the thresholds and levels driving method selection. All
// fields are plain data so policies can be loaded from YAML and compared
// in tests.
type Policy struct {
	// MinCompressSize is the size in bytes below which files are stored.
	MinCompressSize int64 `yaml:"min_compress_size"`

	// SmallFileSize and LargeFileSize delimit the size buckets:
	// small < SmallFileSize <= medium < LargeFileSize <= large.
	SmallFileSize int64 `yaml:"small_file_size"`
	LargeFileSize int64 `yaml:"large_file_size"`

	// TextRatio is the printable-byte fraction above which a sample
	// counts as text.
	TextRatio float64 `yaml:"text_ratio"`

	// DenseTextEntropy gates preprocessing: transforms apply only to
	// text whose sample entropy is below this value.
	DenseTextEntropy float64 `yaml:"dense_text_entropy"`

	// BinaryEntropyCutoff splits binary content: below it LZMA is worth
	// the time, at or above it ZLIB at a fast level wins.
	BinaryEntropyCutoff float64 `yaml:"binary_entropy_cutoff"`

	// Method levels per decision cell.
	TextLZMALevel   int `yaml:"text_lzma_level"`
	TextBzip2Level  int `yaml:"text_bzip2_level"`
	BinaryLZMALevel int `yaml:"binary_lzma_level"`
	FastZlibLevel   int `yaml:"fast_zlib_level"`

	// TextTransforms names the transforms applied to low-entropy text:
	// "collapse_whitespace" and/or "fold_case".
	TextTransforms []string `yaml:"text_transforms"`
}

// DefaultPolicy returns the standard decision policy.
func DefaultPolicy() *Policy {
	return &Policy{
		MinCompressSize:     64,
		SmallFileSize:       1 << 20,
		LargeFileSize:       32 << 20,
		TextRatio:           0.95,
		DenseTextEntropy:    5.0,
		BinaryEntropyCutoff: 6.0,
		TextLZMALevel:       9,
		TextBzip2Level:      9,
		BinaryLZMALevel:     6,
		FastZlibLevel:       1,
		TextTransforms:      []string{"collapse_whitespace", "fold_case"},
	}
}

// Validate checks that the policy is internally consistent.
func (p *Policy) Validate() error {
	if p.MinCompressSize < 0 {
		return fmt.Errorf("%w: min_compress_size is negative", ErrInvalidPolicy)
	}
	if p.SmallFileSize <= 0 || p.LargeFileSize <= p.SmallFileSize {
		return fmt.Errorf("%w: size buckets out of order", ErrInvalidPolicy)
	}
	if p.TextRatio <= 0 || p.TextRatio > 1 {
		return fmt.Errorf("%w: text_ratio must be in (0, 1]", ErrInvalidPolicy)
	}
	if p.DenseTextEntropy < 0 || p.DenseTextEntropy > 8 {
		return fmt.Errorf("%w: dense_text_entropy must be in [0, 8]", ErrInvalidPolicy)
	}
	if p.BinaryEntropyCutoff < 0 || p.BinaryEntropyCutoff > 8 {
		return fmt.Errorf("%w: binary_entropy_cutoff must be in [0, 8]", ErrInvalidPolicy)
	}
	for name, level := range map[string]int{
		"text_lzma_level":   p.TextLZMALevel,
		"text_bzip2_level":  p.TextBzip2Level,
		"binary_lzma_level": p.BinaryLZMALevel,
		"fast_zlib_level":   p.FastZlibLevel,
	} {
		if level < 1 || level > 9 {
			return fmt.Errorf("%w: %s must be in [1, 9]", ErrInvalidPolicy, name)
		}
	}
	if _, err := ParseTransforms(p.TextTransforms); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

func (p *Policy) transformFlags() TransformFlags {
	flags, _ := ParseTransforms(p.TextTransforms)
	return flags
}

// Select maps a content profile and file size to a compression plan. It is
// a pure function of its inputs; the decision table is evaluated in order:
//
//  1. precompressed or empty content is stored
//  2. files below MinCompressSize are stored
//  3. text goes to LZMA (small, medium) or BZIP2 (large) at a high level,
//     with transforms when the sample entropy is below DenseTextEntropy
//  4. binary goes to LZMA below BinaryEntropyCutoff, otherwise ZLIB at a
//     fast level; the tie at the cutoff resolves to ZLIB
func (p *Policy) Select(profile ContentProfile, size int64) Plan {
	if profile.Empty || profile.Class == ClassPrecompressed {
		return Plan{Method: MethodStore}
	}
	if size < p.MinCompressSize {
		return Plan{Method: MethodStore}
	}

	if profile.Class == ClassText {
		plan := Plan{Method: MethodLZMA, Level: p.TextLZMALevel}
		if profile.Bucket == SizeLarge {
			plan = Plan{Method: MethodBzip2, Level: p.TextBzip2Level}
		}
		if profile.Entropy < p.DenseTextEntropy {
			plan.Transforms = p.transformFlags()
		}
		return plan
	}

	if profile.Entropy < p.BinaryEntropyCutoff {
		return Plan{Method: MethodLZMA, Level: p.BinaryLZMALevel}
	}
	return Plan{Method: MethodZlib, Level: p.FastZlibLevel}
}

// validatePlan guards the pipeline against plans that violate the
// selection invariants. Select never produces such plans; a violation is
// an internal error and fails the file's task.
func validatePlan(plan Plan, profile ContentProfile) error {
	if !plan.Method.valid() {
		return fmt.Errorf("%w: method %d", ErrPlanInvariant, uint8(plan.Method))
	}
	if plan.Transforms&^transformAll != 0 {
		return fmt.Errorf("%w: unknown transform bits %#x", ErrPlanInvariant, uint8(plan.Transforms))
	}
	if plan.Method == MethodStore && plan.Transforms != 0 {
		return fmt.Errorf("%w: store plan carries transforms", ErrPlanInvariant)
	}
	if plan.Transforms != 0 && profile.Class != ClassText {
		return fmt.Errorf("%w: transforms on %s content", ErrPlanInvariant, profile.Class)
	}
	return nil
}

// LoadPolicy reads a YAML policy file. Missing keys keep their defaults.
func LoadPolicy(fsys afero.Fs, path string) (*Policy, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("zipwright: read policy: %w", err)
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("zipwright: parse policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
