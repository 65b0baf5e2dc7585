package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/leakgate/leakgate/internal/heuristic"
)

// Reserved vocabulary entries for padding and unknown characters.
const (
	padToken = "<PAD>"
	unkToken = "<UNK>"
)

// Fixed structural features before the configurable prefix flags.
const baseFeatureCount = 16

var (
	hexRe = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	b64Re = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	jwtRe = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
)

// encodeChars maps s to a fixed-length sequence of character ids,
// truncating and padding to maxLen. Unknown characters map to <UNK>.
func encodeChars(vocab map[string]int64, s string, maxLen int) []int64 {
	pad, ok := vocab[padToken]
	if !ok {
		pad = 0
	}
	unk, ok := vocab[unkToken]
	if !ok {
		unk = 1
	}

	s = strings.TrimSpace(s)
	ids := make([]int64, 0, maxLen)
	for _, r := range s {
		if len(ids) >= maxLen {
			break
		}
		if id, ok := vocab[string(r)]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, unk)
		}
	}
	for len(ids) < maxLen {
		ids = append(ids, pad)
	}
	return ids
}

// structuralFeatures builds the raw (unnormalized) feature vector for s:
// length, entropy, character-class fractions, separator flags, shape
// detectors, and one prefix-match flag per configured prefix.
func structuralFeatures(s string, prefixes []string) []float32 {
	runes := []rune(s)
	n := len(runes)
	ent := heuristic.Entropy(s)

	var digits, lowers, uppers, letters, spaces int
	for _, r := range runes {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			spaces++
		}
		if unicode.IsLower(r) {
			lowers++
		}
		if unicode.IsUpper(r) {
			uppers++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	specials := n - digits - letters - spaces

	denom := float32(n)
	if n == 0 {
		denom = 1
	}

	feats := make([]float32, 0, structuralFeatureDim(prefixes))
	feats = append(feats,
		float32(n),
		float32(ent),
		float32(digits)/denom,
		float32(lowers)/denom,
		float32(uppers)/denom,
		float32(letters)/denom,
		float32(spaces)/denom,
		float32(specials)/denom,
		flag(strings.Contains(s, "=")),
		flag(strings.Contains(s, "-")),
		flag(strings.Contains(s, "_")),
		flag(strings.Contains(s, "/")),
		flag(strings.Contains(s, "+")),
		flag(n >= 16 && hexRe.MatchString(s)),
		flag(n >= 16 && b64Re.MatchString(s)),
		flag(jwtRe.MatchString(s)),
	)
	for _, p := range prefixes {
		feats = append(feats, flag(p != "" && strings.HasPrefix(s, p)))
	}
	return feats
}

func structuralFeatureDim(prefixes []string) int {
	return baseFeatureCount + len(prefixes)
}

func normalizeFeatures(x, mean, std []float32) []float32 {
	out := make([]float32, len(x))
	for i := range x {
		sd := std[i]
		if sd == 0 {
			sd = 1
		}
		out[i] = (x[i] - mean[i]) / sd
	}
	return out
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
