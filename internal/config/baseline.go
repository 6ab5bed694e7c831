package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

// LoadBaseline reads comparison scores from a YAML mapping of metric to score.
// Keys may omit the "_score" suffix. Metrics absent from the file keep their
// default value; an empty path yields the defaults.
func LoadBaseline(path string) (domain.Baseline, error) {
	baseline := domain.DefaultBaseline()
	if strings.TrimSpace(path) == "" {
		return baseline, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline file: %w", err)
	}
	return parseBaseline(raw, baseline)
}

func parseBaseline(raw []byte, baseline domain.Baseline) (domain.Baseline, error) {
	var values map[string]float64
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return baseline, nil
		}
		return nil, fmt.Errorf("decode baseline yaml: %w", err)
	}

	for key, value := range values {
		metric := strings.ToLower(strings.TrimSpace(key))
		if !strings.HasSuffix(metric, "_score") {
			metric += "_score"
		}
		if _, known := baseline[metric]; !known {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse baseline", fmt.Errorf("unknown metric %q", key))
		}
		if value < domain.MinScore || value > domain.MaxScore {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse baseline", fmt.Errorf("%s=%v is outside 0..10", key, value))
		}
		baseline[metric] = value
	}
	return baseline, nil
}
