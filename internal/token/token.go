// Package token is a client for the MockUSDC stablecoin. Reads go straight to
// the node; writes are signed locally and wait for their receipt.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/config"
	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized        = errors.New("caller is not allowed to mint")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrNoSigner            = errors.New("no signing wallet configured")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Client talks to one deployed token.
type Client struct {
	client  *chain.EVMClient
	caller  *contract.Caller
	sender  *contract.Sender
	address string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewClient creates a read-only client for the token at address.
func NewClient(client *chain.EVMClient, address string, log logrus.FieldLogger) (*Client, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid token address %q", address)
	}
	caller, err := contract.NewCaller(client, contract.GetBuiltinABI("mockusdc"))
	if err != nil {
		return nil, err
	}
	return &Client{
		client:  client,
		caller:  caller,
		address: common.HexToAddress(address).Hex(),
		timeout: config.TxConfirmTimeout,
		log:     log.WithField("token", common.HexToAddress(address).Hex()),
	}, nil
}

// WithSigner returns a copy of c that can send mint and transfer transactions.
func (c *Client) WithSigner(signer contract.TxSigner, chainID *big.Int) (*Client, error) {
	sender, err := contract.NewSender(c.client, contract.GetBuiltinABI("mockusdc"), signer, chainID)
	if err != nil {
		return nil, err
	}
	cp := *c
	cp.sender = sender
	cp.log = c.log.WithField("from", signer.Address())
	return &cp, nil
}

// SetConfirmTimeout bounds how long writes wait for their receipt.
func (c *Client) SetConfirmTimeout(d time.Duration) { c.timeout = d }

// Address is the checksummed token address.
func (c *Client) Address() string { return c.address }

// Info is the token's metadata and supply.
type Info struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Owner       string
}

// Info reads name, symbol, decimals, supply and owner.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	name, err := contract.CallAs[string](ctx, c.caller, c.address, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := contract.CallAs[string](ctx, c.caller, c.address, "symbol")
	if err != nil {
		return nil, err
	}
	decimals, err := c.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	supply, err := c.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := contract.CallAs[common.Address](ctx, c.caller, c.address, "owner")
	if err != nil {
		return nil, err
	}
	return &Info{Name: name, Symbol: symbol, Decimals: decimals, TotalSupply: supply, Owner: owner.Hex()}, nil
}

// Decimals returns decimals().
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	return contract.CallAs[uint8](ctx, c.caller, c.address, "decimals")
}

// TotalSupply returns totalSupply() in base units.
func (c *Client) TotalSupply(ctx context.Context) (*big.Int, error) {
	return contract.CallAs[*big.Int](ctx, c.caller, c.address, "totalSupply")
}

// BalanceOf returns the balance of account in base units.
func (c *Client) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	addr, err := parseAddress(account)
	if err != nil {
		return nil, err
	}
	return contract.CallAs[*big.Int](ctx, c.caller, c.address, "balanceOf", addr)
}

// Mint creates amount new base units for to and waits for confirmation. The
// call is dry-run first so an owner-only rejection surfaces as ErrUnauthorized
// without spending gas.
func (c *Client) Mint(ctx context.Context, to string, amount *big.Int) (*chain.TxReceipt, error) {
	if c.sender == nil {
		return nil, ErrNoSigner
	}
	addr, err := parseAddress(to)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	ok, reason, err := c.sender.Simulate(ctx, c.address, "mint", addr, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		if strings.HasPrefix(reason, "OwnableUnauthorizedAccount") {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, reason)
		}
		return nil, &chain.CallError{Method: "mint", Err: fmt.Errorf("reverted: %s", reason)}
	}

	c.log.WithFields(logrus.Fields{"to": addr.Hex(), "amount": amount.String()}).Info("minting")
	c.sender.SetFallbackGas(config.GasLimitERC20Mint)
	return c.sender.SendAndWait(ctx, c.timeout, c.address, "mint", addr, amount)
}

// Transfer moves amount base units from the signer to to and waits for
// confirmation. The signer's balance is checked before anything is sent.
func (c *Client) Transfer(ctx context.Context, to string, amount *big.Int) (*chain.TxReceipt, error) {
	if c.sender == nil {
		return nil, ErrNoSigner
	}
	addr, err := parseAddress(to)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	bal, err := c.BalanceOf(ctx, c.sender.From())
	if err != nil {
		return nil, err
	}
	if bal.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, bal, amount)
	}

	c.log.WithFields(logrus.Fields{"to": addr.Hex(), "amount": amount.String()}).Info("transferring")
	c.sender.SetFallbackGas(config.GasLimitERC20Transfer)
	return c.sender.SendAndWait(ctx, c.timeout, c.address, "transfer", addr, amount)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
