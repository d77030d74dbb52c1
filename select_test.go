package zipwright

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func textProfile(entropy float64, bucket SizeBucket) ContentProfile {
	return ContentProfile{Class: ClassText, Entropy: entropy, Printable: 1.0, Bucket: bucket}
}

func binaryProfile(entropy float64, bucket SizeBucket) ContentProfile {
	return ContentProfile{Class: ClassBinary, Entropy: entropy, Printable: 0.3, Bucket: bucket}
}

func TestSelectDecisionTable(t *testing.T) {
	policy := DefaultPolicy()
	bothTransforms := TransformCollapseWhitespace | TransformFoldCase

	tests := []struct {
		name    string
		profile ContentProfile
		size    int64
		want    Plan
	}{
		{
			name:    "dense-text-small",
			profile: textProfile(4.2, SizeSmall),
			size:    10 << 10,
			want:    Plan{Method: MethodLZMA, Level: 9, Transforms: bothTransforms},
		},
		{
			name:    "loose-text-small",
			profile: textProfile(5.5, SizeSmall),
			size:    10 << 10,
			want:    Plan{Method: MethodLZMA, Level: 9},
		},
		{
			name:    "text-medium",
			profile: textProfile(4.5, SizeMedium),
			size:    10 << 20,
			want:    Plan{Method: MethodLZMA, Level: 9, Transforms: bothTransforms},
		},
		{
			name:    "text-large",
			profile: textProfile(4.5, SizeLarge),
			size:    64 << 20,
			want:    Plan{Method: MethodBzip2, Level: 9, Transforms: bothTransforms},
		},
		{
			name:    "loose-text-large",
			profile: textProfile(5.5, SizeLarge),
			size:    64 << 20,
			want:    Plan{Method: MethodBzip2, Level: 9},
		},
		{
			name:    "binary-structured",
			profile: binaryProfile(3.0, SizeMedium),
			size:    2 << 20,
			want:    Plan{Method: MethodLZMA, Level: 6},
		},
		{
			name:    "binary-dense",
			profile: binaryProfile(7.5, SizeMedium),
			size:    2 << 20,
			want:    Plan{Method: MethodZlib, Level: 1},
		},
		{
			name:    "binary-at-cutoff",
			profile: binaryProfile(6.0, SizeSmall),
			size:    100 << 10,
			want:    Plan{Method: MethodZlib, Level: 1},
		},
		{
			name:    "precompressed",
			profile: ContentProfile{Class: ClassPrecompressed, Signature: "gz", Bucket: SizeMedium},
			size:    2 << 20,
			want:    Plan{Method: MethodStore},
		},
		{
			name:    "empty",
			profile: ContentProfile{Empty: true, Class: ClassPrecompressed, Bucket: SizeSmall},
			size:    0,
			want:    Plan{Method: MethodStore},
		},
		{
			name:    "below-minimum",
			profile: textProfile(4.0, SizeSmall),
			size:    63,
			want:    Plan{Method: MethodStore},
		},
		{
			name:    "at-minimum",
			profile: textProfile(4.0, SizeSmall),
			size:    64,
			want:    Plan{Method: MethodLZMA, Level: 9, Transforms: bothTransforms},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Select(tt.profile, tt.size)
			if got != tt.want {
				t.Errorf("Expected plan %+v, got %+v", tt.want, got)
			}
			if err := validatePlan(got, tt.profile); err != nil {
				t.Errorf("Plan failed validation: %v", err)
			}
			// Same inputs must always produce the same plan.
			if again := policy.Select(tt.profile, tt.size); again != got {
				t.Errorf("Selection is not deterministic: %+v then %+v", got, again)
			}
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"negative-min-size", func(p *Policy) { p.MinCompressSize = -1 }},
		{"inverted-buckets", func(p *Policy) { p.LargeFileSize = p.SmallFileSize }},
		{"zero-small-bucket", func(p *Policy) { p.SmallFileSize = 0 }},
		{"text-ratio-zero", func(p *Policy) { p.TextRatio = 0 }},
		{"text-ratio-above-one", func(p *Policy) { p.TextRatio = 1.5 }},
		{"dense-entropy-out-of-range", func(p *Policy) { p.DenseTextEntropy = 9 }},
		{"cutoff-negative", func(p *Policy) { p.BinaryEntropyCutoff = -0.5 }},
		{"lzma-level-zero", func(p *Policy) { p.TextLZMALevel = 0 }},
		{"zlib-level-ten", func(p *Policy) { p.FastZlibLevel = 10 }},
		{"unknown-transform", func(p *Policy) { p.TextTransforms = []string{"rot13"} }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(policy)
			err := policy.Validate()
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("Expected ErrInvalidPolicy, got %v", err)
			}
		})
	}

	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("Default policy failed validation: %v", err)
	}
	if err := FastPolicy().Validate(); err != nil {
		t.Errorf("Fast policy failed validation: %v", err)
	}
	if err := ArchivalPolicy().Validate(); err != nil {
		t.Errorf("Archival policy failed validation: %v", err)
	}
}

func TestValidatePlan(t *testing.T) {
	text := textProfile(4.0, SizeSmall)
	binary := binaryProfile(3.0, SizeSmall)

	tests := []struct {
		name    string
		plan    Plan
		profile ContentProfile
		wantErr bool
	}{
		{"valid", Plan{Method: MethodLZMA, Level: 9, Transforms: TransformFoldCase}, text, false},
		{"store", Plan{Method: MethodStore}, binary, false},
		{"bad-method", Plan{Method: Method(9)}, binary, true},
		{"unknown-transform-bits", Plan{Method: MethodLZMA, Transforms: TransformFlags(0x80)}, text, true},
		{"store-with-transforms", Plan{Method: MethodStore, Transforms: TransformFoldCase}, text, true},
		{"transforms-on-binary", Plan{Method: MethodLZMA, Transforms: TransformFoldCase}, binary, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePlan(tt.plan, tt.profile)
			if tt.wantErr && !errors.Is(err, ErrPlanInvariant) {
				t.Errorf("Expected ErrPlanInvariant, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid plan, got %v", err)
			}
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("overrides-merge-with-defaults", func(t *testing.T) {
		yamlDoc := []byte("text_lzma_level: 6\ndense_text_entropy: 4.0\ntext_transforms: [fold_case]\n")
		if err := afero.WriteFile(fs, "policy.yaml", yamlDoc, 0o644); err != nil {
			t.Fatalf("Failed to write policy file: %v", err)
		}
		policy, err := LoadPolicy(fs, "policy.yaml")
		if err != nil {
			t.Fatalf("Failed to load policy: %v", err)
		}
		if policy.TextLZMALevel != 6 {
			t.Errorf("Expected text_lzma_level 6, got %d", policy.TextLZMALevel)
		}
		if policy.DenseTextEntropy != 4.0 {
			t.Errorf("Expected dense_text_entropy 4.0, got %f", policy.DenseTextEntropy)
		}
		if !reflect.DeepEqual(policy.TextTransforms, []string{"fold_case"}) {
			t.Errorf("Expected transforms [fold_case], got %v", policy.TextTransforms)
		}
		// Untouched keys keep their defaults.
		if policy.MinCompressSize != 64 {
			t.Errorf("Expected default min_compress_size 64, got %d", policy.MinCompressSize)
		}
		if policy.BinaryEntropyCutoff != 6.0 {
			t.Errorf("Expected default binary_entropy_cutoff 6.0, got %f", policy.BinaryEntropyCutoff)
		}
	})

	t.Run("invalid-values", func(t *testing.T) {
		if err := afero.WriteFile(fs, "bad.yaml", []byte("fast_zlib_level: 12\n"), 0o644); err != nil {
			t.Fatalf("Failed to write policy file: %v", err)
		}
		if _, err := LoadPolicy(fs, "bad.yaml"); !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("Expected ErrInvalidPolicy, got %v", err)
		}
	})

	t.Run("malformed-yaml", func(t *testing.T) {
		if err := afero.WriteFile(fs, "broken.yaml", []byte(":\n\t-"), 0o644); err != nil {
			t.Fatalf("Failed to write policy file: %v", err)
		}
		if _, err := LoadPolicy(fs, "broken.yaml"); err == nil {
			t.Error("Expected parse error for malformed YAML")
		}
	})

	t.Run("missing-file", func(t *testing.T) {
		if _, err := LoadPolicy(fs, "nope.yaml"); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
