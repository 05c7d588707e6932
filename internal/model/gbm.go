package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// TreeNode is one node of a regression tree. Leaf nodes have Feature == -1
// and carry the leaf value; internal nodes route values[Feature] < Threshold
// to Left, otherwise to Right.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single regression tree stored as a flat node array rooted at
// index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Ensemble is a serialized gradient boosted tree model. The raw margin is
// the base score plus the sum of leaf values across trees; the probability
// is its logistic transform.
type Ensemble struct {
	ModelVersion    string    `json:"model_version"`
	EncodingVersion string    `json:"encoding_version"`
	BaseScore       float64   `json:"base_score"`
	FeatureNames    []string  `json:"feature_names"`
	Baseline        []float64 `json:"baseline"`
	Trees           []Tree    `json:"trees"`
}

// LoadEnsemble reads and validates a model artifact from disk.
func LoadEnsemble(path string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model artifact %s: %w", path, err)
	}
	defer f.Close()
	return ParseEnsemble(f)
}

// ParseEnsemble decodes and validates a model artifact.
func ParseEnsemble(r io.Reader) (*Ensemble, error) {
	var e Ensemble
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("parsing model artifact: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("validating model artifact: %w", err)
	}
	return &e, nil
}

func (e *Ensemble) validate() error {
	if e.ModelVersion == "" {
		return fmt.Errorf("missing model_version")
	}
	if e.EncodingVersion != EncodingVersion {
		return fmt.Errorf("encoding version %q does not match runtime encoding %q",
			e.EncodingVersion, EncodingVersion)
	}
	if len(e.FeatureNames) != FeatureCount {
		return fmt.Errorf("artifact declares %d features, runtime expects %d",
			len(e.FeatureNames), FeatureCount)
	}
	for i, name := range e.FeatureNames {
		if name != FeatureNames[i] {
			return fmt.Errorf("feature %d is %q in artifact, %q in runtime", i, name, FeatureNames[i])
		}
	}
	if len(e.Baseline) != FeatureCount {
		return fmt.Errorf("baseline vector has %d values, expected %d", len(e.Baseline), FeatureCount)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("artifact contains no trees")
	}
	for ti, tree := range e.Trees {
		for ni, node := range tree.Nodes {
			if node.Feature >= FeatureCount {
				return fmt.Errorf("tree %d node %d references feature %d", ti, ni, node.Feature)
			}
			if node.Feature >= 0 {
				if node.Left < 0 || node.Left >= len(tree.Nodes) ||
					node.Right < 0 || node.Right >= len(tree.Nodes) {
					return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
				}
			}
		}
	}
	return nil
}

// Margin computes the raw (pre-logistic) score for a feature vector.
func (e *Ensemble) Margin(vec []float64) float64 {
	margin := e.BaseScore
	for i := range e.Trees {
		margin += e.Trees[i].score(vec)
	}
	return margin
}

func (t *Tree) score(vec []float64) float64 {
	idx := 0
	// Node count bounds the walk; validated trees terminate at a leaf.
	for range t.Nodes {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return node.Value
		}
		if vec[node.Feature] < node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// GBMPredictor scores feature vectors against an embedded tree ensemble.
// It implements domain.Predictor.
type GBMPredictor struct {
	ensemble *Ensemble
	logger   *logrus.Logger
}

// NewGBMPredictor creates a predictor from a validated ensemble.
func NewGBMPredictor(ensemble *Ensemble, logger *logrus.Logger) *GBMPredictor {
	if logger == nil {
		logger = logrus.New()
	}
	return &GBMPredictor{ensemble: ensemble, logger: logger}
}

// Predict returns the 5-year recurrence probability for an encoded panel.
func (p *GBMPredictor) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := ValidateVector(features); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrModelUnavailable, err)
	}

	probability := sigmoid(p.ensemble.Margin(features))
	if !domain.ValidProbability(probability) {
		p.logger.WithFields(logrus.Fields{
			"model_version": p.ensemble.ModelVersion,
			"probability":   probability,
		}).Error("Model produced out-of-range probability")
		return 0, fmt.Errorf("%w: probability %v out of range", domain.ErrModelUnavailable, probability)
	}
	return probability, nil
}

// Version returns the artifact's model version.
func (p *GBMPredictor) Version() string {
	return p.ensemble.ModelVersion
}

// Baseline returns a copy of the cohort-average feature vector used as the
// reference point for explanations.
func (p *GBMPredictor) Baseline() []float64 {
	baseline := make([]float64, len(p.ensemble.Baseline))
	copy(baseline, p.ensemble.Baseline)
	return baseline
}

// BaseProbability is the probability at the cohort baseline vector.
func (p *GBMPredictor) BaseProbability() float64 {
	return sigmoid(p.ensemble.Margin(p.ensemble.Baseline))
}
