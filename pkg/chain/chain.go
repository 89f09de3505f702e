// Package chain holds the catalog of blockchains the bridge can move value between.
package chain

import (
	"errors"
	"fmt"
	"math"
)

// MaxID is the largest supported chain id. Ids are persisted as BIGINT.
const MaxID uint64 = math.MaxInt64

var ErrInvalidChainID = errors.New("chain id out of range")

// ValidID reports whether id is a usable chain id.
func ValidID(id uint64) bool {
	return id > 0 && id <= MaxID
}

// Family is the coarse execution model of a chain.
type Family string

const (
	FamilyEVM     Family = "evm"
	FamilyAccount Family = "account"
	FamilyUTXO    Family = "utxo"
)

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	switch f {
	case FamilyEVM, FamilyAccount, FamilyUTXO:
		return true
	}
	return false
}

// ParseFamily converts a raw family name into a Family.
func ParseFamily(s string) (Family, error) {
	f := Family(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown chain family %q", s)
	}
	return f, nil
}

// Currency describes the native currency of a chain.
type Currency struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Symbol   string `json:"symbol" yaml:"symbol" mapstructure:"symbol" validate:"required"`
	Decimals int    `json:"decimals" yaml:"decimals" mapstructure:"decimals" default:"18" validate:"gte=0,lte=36"`
}

// Descriptor is the immutable description of a supported chain.
type Descriptor struct {
	ID             uint64   `json:"id" yaml:"id" mapstructure:"id" validate:"required,max=9223372036854775807"`
	Name           string   `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Family         Family   `json:"family" yaml:"family" mapstructure:"family" default:"evm" validate:"oneof=evm account utxo"`
	RPCURL         string   `json:"rpc_url" yaml:"rpc_url" mapstructure:"rpc_url" validate:"omitempty,url"`
	ExplorerURL    string   `json:"explorer_url" yaml:"explorer_url" mapstructure:"explorer_url" validate:"omitempty,url"`
	NativeCurrency Currency `json:"native_currency" yaml:"native_currency" mapstructure:"native_currency"`
	// BridgeContract is only set for EVM chains.
	BridgeContract string `json:"bridge_contract,omitempty" yaml:"bridge_contract" mapstructure:"bridge_contract"`
	Testnet        bool   `json:"testnet" yaml:"testnet" mapstructure:"testnet"`
	// BaseLayer marks the expensive settlement chain that carries fee and time surcharges.
	BaseLayer bool `json:"base_layer" yaml:"base_layer" mapstructure:"base_layer"`
}

// IsEVM reports whether the chain is EVM-compatible.
func (d Descriptor) IsEVM() bool {
	return d.Family == FamilyEVM
}
