package labeler

import (
	"errors"
	"fmt"
	"strings"
)

type Algorithm string

const (
	AlgorithmPolylabel    Algorithm = "polylabel"
	AlgorithmCentroid     Algorithm = "centroid"
	AlgorithmCenterOfMass Algorithm = "center-of-mass"
)

var Algorithms = []Algorithm{AlgorithmPolylabel, AlgorithmCentroid, AlgorithmCenterOfMass}

var ErrUnknownAlgorithm = errors.New("unknown label algorithm")

func ParseAlgorithm(s string) (Algorithm, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, a := range Algorithms {
		if string(a) == normalized {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q, expected one of %v", ErrUnknownAlgorithm, s, Algorithms)
}
