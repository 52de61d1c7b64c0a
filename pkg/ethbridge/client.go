// Package ethbridge wraps the Ethereum JSON-RPC client, generic ABI
// call/transact helpers, and the submitter/processed-nonce tracker the
// relayer's Ethereum-facing components share (spec section 4.3.1).
package ethbridge

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an Ethereum JSON-RPC connection with the chain ID needed to
// sign EIP-155 transactions.
type Client struct {
	client  *ethclient.Client
	chainID *big.Int
	url     string
}

// NewClient dials an Ethereum JSON-RPC endpoint.
func NewClient(url string, chainID int64) (*Client, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: dial %s: %w", url, err)
	}

	return &Client{
		client:  client,
		chainID: big.NewInt(chainID),
		url:     url,
	}, nil
}

// GetBalance returns address's ETH balance.
func (c *Client) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: get balance: %w", err)
	}
	return balance, nil
}

// GetNonce returns address's pending account nonce.
func (c *Client) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("ethbridge: get nonce: %w", err)
	}
	return nonce, nil
}

// GetGasPrice returns the network's suggested gas price.
func (c *Client) GetGasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: get gas price: %w", err)
	}
	return gasPrice, nil
}

// CreateTransactor builds a bind.TransactOpts from a hex-encoded private key.
func (c *Client) CreateTransactor(privateKeyHex string) (*bind.TransactOpts, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse private key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: create transactor: %w", err)
	}

	return auth, nil
}

// GetPublicAddress recovers the address a private key signs from.
func GetPublicAddress(privateKeyHex string) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("ethbridge: parse private key: %w", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("ethbridge: cast public key to ECDSA")
	}

	return crypto.PubkeyToAddress(*publicKeyECDSA), nil
}

// EstimateGas estimates gas for a call message.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gasLimit, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("ethbridge: estimate gas: %w", err)
	}
	return gasLimit, nil
}

// WaitForTransaction blocks until tx is mined and returns its receipt.
func (c *Client) WaitForTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: wait for transaction: %w", err)
	}
	return receipt, nil
}

// ChainID returns the client's configured chain ID.
func (c *Client) ChainID() *big.Int { return c.chainID }

// Raw returns the underlying ethclient.Client for callers that need it
// directly (e.g. event-log filtering in pkg/relayer/listener).
func (c *Client) Raw() *ethclient.Client { return c.client }

// Health reports whether the node is reachable.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.BlockNumber(ctx); err != nil {
		return fmt.Errorf("ethbridge: health check: %w", err)
	}
	return nil
}

// TxResult summarizes a mined transaction's outcome.
type TxResult struct {
	TransactionHash common.Hash
	BlockNumber     uint64
	BlockHash       common.Hash
	GasUsed         uint64
	GasCost         *big.Int
	Success         bool
	Timestamp       time.Time
}

// CallContract makes a read-only contract call, packing and unpacking
// through the given ABI JSON.
func (c *Client) CallContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, params ...interface{}) ([]interface{}, error) {
	contractABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse ABI: %w", err)
	}

	callData, err := contractABI.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: pack %s call: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: call %s: %w", method, err)
	}

	outputs, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: unpack %s result: %w", method, err)
	}

	return outputs, nil
}

// SendContractTransaction signs and submits a contract method call with a
// fixed gas limit, enforcing a minimum gas price floor, and waits for the
// receipt.
func (c *Client) SendContractTransaction(ctx context.Context, contractAddr common.Address, abiJSON, privateKeyHex, method string, gasLimit uint64, params ...interface{}) (*TxResult, error) {
	contractABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse ABI: %w", err)
	}

	callData, err := contractABI.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: pack %s call: %w", method, err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse private key: %w", err)
	}
	publicKeyECDSA := privateKey.Public().(*ecdsa.PublicKey)
	fromAddress := crypto.PubkeyToAddress(*publicKeyECDSA)

	nonce, err := c.client.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: get nonce: %w", err)
	}

	gasPrice, err := c.floorGasPrice(ctx, 0)
	if err != nil {
		return nil, err
	}

	tx := types.NewTransaction(nonce, contractAddr, big.NewInt(0), gasLimit, gasPrice, callData)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), privateKey)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("ethbridge: send %s transaction: %w", method, err)
	}

	return c.awaitResult(ctx, signedTx, gasPrice)
}

// SendContractTransactionWithRetry retries SendContractTransaction on
// known-transient submission errors, escalating gas price 20% per attempt.
func (c *Client) SendContractTransactionWithRetry(ctx context.Context, contractAddr common.Address, abiJSON, privateKeyHex, method string, gasLimit uint64, maxRetries int, params ...interface{}) (*TxResult, error) {
	contractABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse ABI: %w", err)
	}

	callData, err := contractABI.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: pack %s call: %w", method, err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ethbridge: parse private key: %w", err)
	}
	publicKeyECDSA := privateKey.Public().(*ecdsa.PublicKey)
	fromAddress := crypto.PubkeyToAddress(*publicKeyECDSA)

	for attempt := 0; attempt < maxRetries; attempt++ {
		nonce, err := c.client.PendingNonceAt(ctx, fromAddress)
		if err != nil {
			return nil, fmt.Errorf("ethbridge: get nonce: %w", err)
		}

		gasPrice, err := c.floorGasPrice(ctx, attempt)
		if err != nil {
			return nil, err
		}

		tx := types.NewTransaction(nonce, contractAddr, big.NewInt(0), gasLimit, gasPrice, callData)
		signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), privateKey)
		if err != nil {
			return nil, fmt.Errorf("ethbridge: sign transaction: %w", err)
		}

		if err := c.client.SendTransaction(ctx, signedTx); err != nil {
			if isRetryableSendError(err) && attempt < maxRetries-1 {
				time.Sleep(2 * time.Second)
				continue
			}
			return nil, fmt.Errorf("ethbridge: send %s transaction after %d attempts: %w", method, attempt+1, err)
		}

		return c.awaitResult(ctx, signedTx, gasPrice)
	}

	return nil, fmt.Errorf("ethbridge: send %s transaction after %d attempts", method, maxRetries)
}

func isRetryableSendError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "already known")
}

var minGasPrice = big.NewInt(5e9) // 5 Gwei floor

func (c *Client) floorGasPrice(ctx context.Context, attempt int) (*big.Int, error) {
	base, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: get gas price: %w", err)
	}
	if base.Cmp(minGasPrice) < 0 {
		base = new(big.Int).Set(minGasPrice)
	}
	if attempt == 0 {
		return base, nil
	}
	multiplier := big.NewInt(int64(100 + 20*attempt))
	escalated := new(big.Int).Mul(base, multiplier)
	return escalated.Div(escalated, big.NewInt(100)), nil
}

func (c *Client) awaitResult(ctx context.Context, signedTx *types.Transaction, gasPrice *big.Int) (*TxResult, error) {
	receipt, err := c.WaitForTransaction(ctx, signedTx)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: await transaction receipt: %w", err)
	}

	return &TxResult{
		TransactionHash: signedTx.Hash(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		BlockHash:       receipt.BlockHash,
		GasUsed:         receipt.GasUsed,
		GasCost:         new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(receipt.GasUsed)),
		Success:         receipt.Status == types.ReceiptStatusSuccessful,
		Timestamp:       time.Now(),
	}, nil
}

// GetBlock returns the block at blockNumber, or the latest block if nil.
func (c *Client) GetBlock(ctx context.Context, blockNumber *big.Int) (*types.Block, error) {
	block, err := c.client.BlockByNumber(ctx, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("ethbridge: get block: %w", err)
	}
	return block, nil
}

// GetLatestBlockNumber returns the chain head's block number, used by
// pkg/relayer/listener.EthereumListener to walk forward over finalized
// blocks.
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	block, err := c.GetBlock(ctx, nil)
	if err != nil {
		return 0, err
	}
	return block.NumberU64(), nil
}
