// Package chaintest runs an in-memory JSON-RPC node that hosts MockUSDC and
// SavingCore. Signed transactions are decoded and executed for real, so code
// under test goes through the same signing and ABI paths as against a node.
package chaintest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Well-known Hardhat accounts #0 and #1; never fund on mainnet.
const (
	OwnerKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	OwnerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	UserKey      = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	UserAddress  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	TokenAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	CoreAddress  = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"

	ChainID = 31337
)

// InitialSupply is minted to the owner at genesis: 1,000,000 tokens at 6 decimals.
var InitialSupply = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000))

// Plan is a SavingCore plan as stored by the ledger.
type Plan struct {
	PlanId       *big.Int //nolint:revive
	TenorSeconds *big.Int
	AprBps       *big.Int
	IsActive     bool
}

type receipt struct {
	status  uint64
	block   uint64
	gasUsed uint64
}

type fault struct {
	code int
	msg  string
}

// Ledger is the simulated chain.
type Ledger struct {
	mu sync.Mutex

	srv      *httptest.Server
	tokenABI abi.ABI
	coreABI  abi.ABI

	block    uint64
	owner    common.Address
	balances map[common.Address]*big.Int
	supply   *big.Int
	nonces   map[common.Address]uint64
	receipts map[common.Hash]receipt
	pending  map[common.Hash]int // polls left before the receipt shows up

	plans           []Plan
	mappingOverride map[uint64]Plan

	faults    map[string]fault
	mineDelay int
	calls     map[string]int
}

// New starts a ledger and stops it when the test ends.
func New(t testing.TB) *Ledger {
	t.Helper()
	tokenABI, err := contract.BuildABI(contract.GetBuiltinABI("mockusdc"))
	if err != nil {
		t.Fatalf("mockusdc abi: %v", err)
	}
	coreABI, err := contract.BuildABI(contract.GetBuiltinABI("savingcore"))
	if err != nil {
		t.Fatalf("savingcore abi: %v", err)
	}

	owner := common.HexToAddress(OwnerAddress)
	l := &Ledger{
		tokenABI:        tokenABI,
		coreABI:         coreABI,
		block:           1,
		owner:           owner,
		balances:        map[common.Address]*big.Int{owner: new(big.Int).Set(InitialSupply)},
		supply:          new(big.Int).Set(InitialSupply),
		nonces:          make(map[common.Address]uint64),
		receipts:        make(map[common.Hash]receipt),
		pending:         make(map[common.Hash]int),
		mappingOverride: make(map[uint64]Plan),
		faults:          make(map[string]fault),
		calls:           make(map[string]int),
	}
	l.srv = httptest.NewServer(http.HandlerFunc(l.serve))
	t.Cleanup(l.srv.Close)
	return l
}

// URL is the JSON-RPC endpoint.
func (l *Ledger) URL() string { return l.srv.URL }

// Client returns an EVM client pointed at the ledger with fast receipt polling.
func (l *Ledger) Client() *chain.EVMClient {
	c := chain.NewEVMClient(l.srv.URL)
	c.SetPollInterval(5 * time.Millisecond)
	return c
}

// AddPlan appends a plan and returns its id.
func (l *Ledger) AddPlan(tenorSeconds, aprBps uint64, active bool) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uint64(len(l.plans) + 1)
	l.plans = append(l.plans, Plan{
		PlanId:       new(big.Int).SetUint64(id),
		TenorSeconds: new(big.Int).SetUint64(tenorSeconds),
		AprBps:       new(big.Int).SetUint64(aprBps),
		IsActive:     active,
	})
	return id
}

// OverrideMapping makes plans(id) return p while getPlan(id) is unchanged.
func (l *Ledger) OverrideMapping(id uint64, p Plan) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mappingOverride[id] = p
}

// Fail makes every call to an RPC method ("eth_call") or contract function
// ("plans") return a JSON-RPC error.
func (l *Ledger) Fail(method string, code int, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[method] = fault{code: code, msg: msg}
}

// DelayMining makes each new receipt appear only after n polls.
func (l *Ledger) DelayMining(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mineDelay = n
}

// Calls returns how often an RPC method or contract function was invoked.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// Balance returns the ledger's view of a token balance.
func (l *Ledger) Balance(addr string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceOf(common.HexToAddress(addr)))
}

// TotalSupply returns the ledger's token supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.supply)
}

// --- JSON-RPC ---

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (l *Ledger) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	result, rerr := l.dispatch(req)
	l.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (l *Ledger) dispatch(req rpcRequest) (any, *rpcError) {
	l.calls[req.Method]++
	if f, ok := l.faults[req.Method]; ok {
		return nil, &rpcError{Code: f.code, Message: f.msg}
	}

	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeUint64(ChainID), nil
	case "eth_blockNumber":
		return hexutil.EncodeUint64(l.block), nil
	case "eth_gasPrice":
		return hexutil.EncodeBig(big.NewInt(1_000_000_000)), nil
	case "eth_getTransactionCount":
		var addr string
		if err := param(req, 0, &addr); err != nil {
			return nil, err
		}
		return hexutil.EncodeUint64(l.nonces[common.HexToAddress(addr)]), nil
	case "eth_estimateGas", "eth_call":
		var msg struct {
			From string `json:"from"`
			To   string `json:"to"`
			Data string `json:"data"`
		}
		if err := param(req, 0, &msg); err != nil {
			return nil, err
		}
		data, derr := hexutil.Decode(msg.Data)
		if derr != nil {
			return nil, &rpcError{Code: -32602, Message: derr.Error()}
		}
		// Calls run against a copy of state and never persist.
		snap := l.snapshot()
		out, rerr := l.execute(common.HexToAddress(msg.From), common.HexToAddress(msg.To), data)
		l.restore(snap)
		if rerr != nil {
			return nil, rerr
		}
		if req.Method == "eth_estimateGas" {
			return hexutil.EncodeUint64(50_000), nil
		}
		return hexutil.Encode(out), nil
	case "eth_sendRawTransaction":
		var raw string
		if err := param(req, 0, &raw); err != nil {
			return nil, err
		}
		return l.sendRaw(raw)
	case "eth_getTransactionReceipt":
		var hash string
		if err := param(req, 0, &hash); err != nil {
			return nil, err
		}
		h := common.HexToHash(hash)
		if left := l.pending[h]; left > 0 {
			l.pending[h] = left - 1
			return nil, nil
		}
		rc, ok := l.receipts[h]
		if !ok {
			return nil, nil
		}
		return map[string]string{
			"transactionHash": h.Hex(),
			"status":          hexutil.EncodeUint64(rc.status),
			"blockNumber":     hexutil.EncodeUint64(rc.block),
			"gasUsed":         hexutil.EncodeUint64(rc.gasUsed),
		}, nil
	}
	return nil, &rpcError{Code: -32601, Message: "method not found: " + req.Method}
}

func (l *Ledger) sendRaw(raw string) (any, *rpcError) {
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: err.Error()}
	}
	var tx types.Transaction
	if err := tx.UnmarshalBinary(b); err != nil {
		return nil, &rpcError{Code: -32602, Message: "rlp: " + err.Error()}
	}
	if tx.ChainId().Cmp(big.NewInt(ChainID)) != 0 {
		return nil, &rpcError{Code: -32000, Message: "invalid chain id"}
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(ChainID)), &tx)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: "invalid sender: " + err.Error()}
	}
	if tx.Nonce() != l.nonces[from] {
		return nil, &rpcError{Code: -32000, Message: fmt.Sprintf("nonce too low: have %d, want %d", tx.Nonce(), l.nonces[from])}
	}
	if tx.To() == nil {
		return nil, &rpcError{Code: -32000, Message: "contract creation not supported"}
	}

	l.nonces[from]++
	l.block++

	status := uint64(1)
	snap := l.snapshot()
	if _, rerr := l.execute(from, *tx.To(), tx.Data()); rerr != nil {
		l.restore(snap)
		status = 0
	}
	l.receipts[tx.Hash()] = receipt{status: status, block: l.block, gasUsed: 45_000}
	if l.mineDelay > 0 {
		l.pending[tx.Hash()] = l.mineDelay
	}
	return tx.Hash().Hex(), nil
}

func param(req rpcRequest, i int, out any) *rpcError {
	if i >= len(req.Params) {
		return &rpcError{Code: -32602, Message: "missing params"}
	}
	if err := json.Unmarshal(req.Params[i], out); err != nil {
		return &rpcError{Code: -32602, Message: err.Error()}
	}
	return nil
}

// --- state ---

type snapshot struct {
	balances map[common.Address]*big.Int
	supply   *big.Int
}

func (l *Ledger) snapshot() snapshot {
	b := make(map[common.Address]*big.Int, len(l.balances))
	for k, v := range l.balances {
		b[k] = new(big.Int).Set(v)
	}
	return snapshot{balances: b, supply: new(big.Int).Set(l.supply)}
}

func (l *Ledger) restore(s snapshot) {
	l.balances = s.balances
	l.supply = s.supply
}

func (l *Ledger) balanceOf(a common.Address) *big.Int {
	if b, ok := l.balances[a]; ok {
		return b
	}
	return new(big.Int)
}
