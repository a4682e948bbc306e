package filter

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

var (
	ErrMalformedSpecification         = errors.New("malformed filter specification")
	ErrUnknownFilter                  = errors.New("unknown filter")
	ErrUnknownFilterType              = errors.New("unknown filter type")
	ErrMissingGenerator               = errors.New("missing clause generator")
	ErrInvalidRange                   = errors.New("invalid range")
	ErrDuplicateGeneratorRegistration = errors.New("duplicate generator registration")
	ErrUnresolvableGenerator          = errors.New("unresolvable generator")
	ErrInvalidDescriptor              = errors.New("invalid filter descriptor")
)

// maxSuggestionDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestionDistance = 3

func unknownFilterError(name string, known map[string]Descriptor) error {
	if s := suggest(name, known); s != "" {
		return errors.Wrapf(ErrUnknownFilter, "%q (did you mean %q?)", name, s)
	}
	return errors.Wrapf(ErrUnknownFilter, "%q", name)
}

func suggest(name string, known map[string]Descriptor) string {
	names := make([]string, 0, len(known))
	for k := range known {
		names = append(names, k)
	}
	sort.Strings(names)

	best, bestDistance := "", maxSuggestionDistance+1
	for _, candidate := range names {
		d := levenshtein.DistanceForStrings([]rune(name), []rune(candidate), levenshtein.DefaultOptions)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}
