package chain

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a chain catalog.
type catalogFile struct {
	Chains []Descriptor `yaml:"chains"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadCatalog reads a YAML chain catalog from path and returns its descriptors.
func LoadCatalog(path string) ([]Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML chain catalog, fills defaults and validates each entry.
func ParseCatalog(raw []byte) ([]Descriptor, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode chain catalog: %w", err)
	}

	seen := make(map[uint64]struct{}, len(file.Chains))
	out := make([]Descriptor, 0, len(file.Chains))
	for i := range file.Chains {
		d, err := Normalize(file.Chains[i])
		if err != nil {
			return nil, fmt.Errorf("chain catalog entry %d: %w", i, err)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("chain catalog entry %d: duplicate chain id %d", i, d.ID)
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

// Normalize applies struct-tag defaults to d and validates it.
func Normalize(d Descriptor) (Descriptor, error) {
	if err := defaults.Set(&d); err != nil {
		return Descriptor{}, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(d); err != nil {
		return Descriptor{}, fmt.Errorf("invalid chain %q: %w", d.Name, err)
	}
	if !d.IsEVM() && d.BridgeContract != "" {
		return Descriptor{}, fmt.Errorf("invalid chain %q: bridge contract is only supported on evm chains", d.Name)
	}
	return d, nil
}
