package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxSigner signs transactions for a single account.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Sender sends write transactions to contracts.
type Sender struct {
	client   *chain.EVMClient
	abi      abi.ABI
	signer   TxSigner
	chainID  *big.Int
	gasLimit uint64 // fallback when estimation fails
}

// NewSender creates a Sender for a contract described by entries.
func NewSender(client *chain.EVMClient, entries []ABIEntry, signer TxSigner, chainID *big.Int) (*Sender, error) {
	parsed, err := BuildABI(entries)
	if err != nil {
		return nil, err
	}
	return &Sender{
		client:   client,
		abi:      parsed,
		signer:   signer,
		chainID:  chainID,
		gasLimit: 100000,
	}, nil
}

// SetFallbackGas sets the gas limit used when eth_estimateGas fails.
func (s *Sender) SetFallbackGas(gas uint64) {
	if gas > 0 {
		s.gasLimit = gas
	}
}

// From returns the sending account.
func (s *Sender) From() string { return s.signer.Address() }

// Send calls a write function and broadcasts the transaction.
// Returns the transaction hash.
func (s *Sender) Send(ctx context.Context, contractAddr, method string, args ...any) (string, error) {
	calldata, err := s.pack(method, args...)
	if err != nil {
		return "", err
	}

	from := s.signer.Address()

	gas, err := s.client.EstimateGas(ctx, from, contractAddr, calldata)
	if err != nil {
		gas = s.gasLimit
	}

	gasPrice, err := s.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.client.PendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	toAddr := common.HexToAddress(contractAddr)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &toAddr,
		Value:     big.NewInt(0),
		Data:      hexutil.MustDecode(calldata),
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, hexutil.Encode(raw))
	if err != nil {
		return "", fmt.Errorf("broadcasting %s: %w", method, err)
	}
	return hash, nil
}

// SendAndWait broadcasts the transaction and blocks until it is mined.
func (s *Sender) SendAndWait(ctx context.Context, timeout time.Duration, contractAddr, method string, args ...any) (*chain.TxReceipt, error) {
	hash, err := s.Send(ctx, contractAddr, method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := s.client.WaitForReceipt(ctx, hash, timeout)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}

// Simulate dry-runs a write call from the signer's account. A revert returns
// ok=false with the decoded reason.
func (s *Sender) Simulate(ctx context.Context, contractAddr, method string, args ...any) (bool, string, error) {
	calldata, err := s.pack(method, args...)
	if err != nil {
		return false, "", err
	}
	ok, out, err := s.client.SimulateCall(ctx, s.signer.Address(), contractAddr, calldata)
	if err != nil || ok {
		return ok, "", err
	}
	return false, DecodeRevert(s.abi, out), nil
}

func (s *Sender) pack(method string, args ...any) (string, error) {
	m, ok := s.abi.Methods[method]
	if !ok {
		return "", fmt.Errorf("function %q not found in ABI", method)
	}
	if m.IsConstant() {
		return "", fmt.Errorf("function %q is not a write function", method)
	}
	data, err := s.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("encoding call to %s: %w", method, err)
	}
	return hexutil.Encode(data), nil
}

// DecodeRevert renders revert data. Error(string) yields its message, custom
// errors declared in parsed yield "Name(arg, ...)", anything else is returned
// unchanged.
func DecodeRevert(parsed abi.ABI, data string) string {
	if !strings.HasPrefix(data, "0x") {
		return data
	}
	raw, err := hexutil.Decode(data)
	if err != nil || len(raw) < 4 {
		return data
	}
	if msg, err := abi.UnpackRevert(raw); err == nil {
		return msg
	}

	var id [4]byte
	copy(id[:], raw[:4])
	e, err := parsed.ErrorByID(id)
	if err != nil {
		return data
	}
	vals, err := e.Inputs.Unpack(raw[4:])
	if err != nil {
		return e.Name
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		if a, ok := v.(common.Address); ok {
			parts[i] = a.Hex()
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}
