package predict

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrArtifact marks a missing or malformed model artifact.
var ErrArtifact = errors.New("invalid model artifact")

// Artifacts names the three files a Predictor is built from.
type Artifacts struct {
	Ranking string `yaml:"ranking" json:"ranking"`
	Scaler  string `yaml:"scaler" json:"scaler"`
	Model   string `yaml:"model" json:"model"`
}

// vector decodes a scalar, a flat sequence or a single-row nested sequence.
// Exported model parameters come in all three shapes.
type vector []float64

func (v *vector) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		*v = vector{f}
		return nil
	case yaml.SequenceNode:
		if len(n.Content) == 1 && n.Content[0].Kind == yaml.SequenceNode {
			return v.UnmarshalYAML(n.Content[0])
		}
		var fs []float64
		if err := n.Decode(&fs); err != nil {
			return err
		}
		*v = fs
		return nil
	}
	return fmt.Errorf("line %d: expected number or list", n.Line)
}

type scalerDoc struct {
	Mean  vector `yaml:"mean"`
	Scale vector `yaml:"scale"`
}

type modelDoc struct {
	Coef      vector `yaml:"coef"`
	Intercept vector `yaml:"intercept"`
}

// LoadScaler reads StandardScaler parameters from a JSON or YAML document.
func LoadScaler(path string) (*Scaler, error) {
	var doc scalerDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	return NewScaler(doc.Mean, doc.Scale)
}

// LoadLinearModel reads linear regression parameters from a JSON or YAML document.
func LoadLinearModel(path string) (*LinearModel, error) {
	var doc modelDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Intercept) > 1 {
		return nil, fmt.Errorf("%w: %s: model has %d outputs, want 1", ErrArtifact, path, len(doc.Intercept))
	}
	var intercept float64
	if len(doc.Intercept) == 1 {
		intercept = doc.Intercept[0]
	}
	return NewLinearModel(doc.Coef, intercept)
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifact, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifact, path, err)
	}
	return nil
}
