package labeler

import (
	"fmt"

	"github.com/royalcat/geolabels/polylabel"
)

type Config struct {
	Algorithm   string  `koanf:"algorithm"`
	Precision   float64 `koanf:"precision"`
	IncludeArea bool    `koanf:"include_area"`
	ByFeature   bool    `koanf:"by_feature"`
	// Digits is the number of decimals kept in output coordinates, negative keeps them as is.
	Digits int `koanf:"digits"`
}

func ConfigDefault() Config {
	return Config{
		Algorithm:   string(AlgorithmPolylabel),
		Precision:   0.001,
		IncludeArea: false,
		ByFeature:   false,
		Digits:      6,
	}
}

const maxDigits = 15

func (cfg *Config) Validate() error {
	if _, err := ParseAlgorithm(cfg.Algorithm); err != nil {
		return err
	}
	if !(cfg.Precision > 0) {
		return fmt.Errorf("%w: %v, must be positive", polylabel.ErrInvalidPrecision, cfg.Precision)
	}
	if cfg.Digits > maxDigits {
		return fmt.Errorf("digits must be at most %d, got %d", maxDigits, cfg.Digits)
	}
	return nil
}
