package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/bindings"
)

// contractDeployment names one deployed contract's address and ABI file.
type contractDeployment struct {
	Address common.Address `json:"address"`
	ABIPath string         `json:"abiPath"`
}

// contractsFile is the shape of the optional file named by
// config.Config.ContractsConfigPath. It centralizes every ABI-backed
// Ethereum contract the merkleroot/message relayers need, since none of
// those ABIs can be baked into the relayer itself (the bridge's Ethereum
// contracts are external collaborators named by interface only).
type contractsFile struct {
	PrivateKeyHex string `json:"privateKeyHex"`
	GasLimit      uint64 `json:"gasLimit"`
	MaxRetries    int    `json:"maxRetries"`

	Relayer         contractDeployment `json:"relayer"`
	MessageQueue    contractDeployment `json:"messageQueue"`
	ERC20Manager    contractDeployment `json:"erc20Manager"`
	BridgingPayment contractDeployment `json:"bridgingPayment"`
}

func loadContractsFile(path string) (*contractsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contracts config %s: %w", path, err)
	}
	var cf contractsFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse contracts config %s: %w", path, err)
	}
	return &cf, nil
}

func (cf *contractsFile) bindingsConfig(d contractDeployment) (bindings.Config, error) {
	if d.Address == (common.Address{}) {
		return bindings.Config{}, fmt.Errorf("contract address not set")
	}
	abiJSON, err := os.ReadFile(d.ABIPath)
	if err != nil {
		return bindings.Config{}, fmt.Errorf("read ABI %s: %w", d.ABIPath, err)
	}
	return bindings.Config{
		Address:       d.Address,
		ABIJSON:       string(abiJSON),
		PrivateKeyHex: cf.PrivateKeyHex,
		GasLimit:      cf.GasLimit,
		MaxRetries:    cf.MaxRetries,
	}, nil
}
