package browsershot

import (
	"fmt"

	"github.com/glaslos/ssdeep"
	"github.com/root4loot/goutils/log"
)

// IsSimilarToAny reports whether image scores at least threshold (1-100)
// against any of the others. Images too small to hash never match.
func IsSimilarToAny(image []byte, others [][]byte, threshold int) (bool, error) {
	if threshold < 1 || threshold > 100 {
		return false, fmt.Errorf("%w: similarity threshold must be between 1 and 100, got %d", ErrInvalidArgument, threshold)
	}

	hash1, err := ssdeep.FuzzyBytes(image)
	if err != nil {
		log.Debugf("Could not hash screenshot: %v", err)
		return false, nil
	}

	for _, other := range others {
		hash2, err := ssdeep.FuzzyBytes(other)
		if err != nil {
			continue
		}

		score, err := ssdeep.Distance(hash1, hash2)
		if err != nil {
			continue
		}

		if score >= threshold {
			log.Debugf("Screenshot is similar to a previous one with a score of %d", score)
			return true, nil
		}
	}
	return false, nil
}
