package chaintest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// execute runs calldata against the contract at to. Reverts come back as an
// rpcError carrying the encoded custom error, the way geth reports them.
func (l *Ledger) execute(from, to common.Address, data []byte) ([]byte, *rpcError) {
	if len(data) < 4 {
		return nil, revertString("missing selector")
	}

	var parsed abi.ABI
	switch to {
	case common.HexToAddress(TokenAddress):
		parsed = l.tokenABI
	case common.HexToAddress(CoreAddress):
		parsed = l.coreABI
	default:
		// Calls to an account without code succeed with empty output.
		return nil, nil
	}

	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, revertString("unknown selector")
	}
	l.calls[method.Name]++
	if f, ok := l.faults[method.Name]; ok {
		return nil, &rpcError{Code: f.code, Message: f.msg}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revertString("bad calldata")
	}

	var out []any
	var rerr *rpcError
	if to == common.HexToAddress(TokenAddress) {
		out, rerr = l.token(from, method.Name, args)
	} else {
		out, rerr = l.core(method.Name, args)
	}
	if rerr != nil {
		return nil, rerr
	}
	ret, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, &rpcError{Code: -32603, Message: fmt.Sprintf("encoding %s output: %v", method.Name, err)}
	}
	return ret, nil
}

// --- MockUSDC ---

func (l *Ledger) token(from common.Address, method string, args []any) ([]any, *rpcError) {
	switch method {
	case "name":
		return []any{"Mock USDC"}, nil
	case "symbol":
		return []any{"USDC"}, nil
	case "decimals":
		return []any{uint8(6)}, nil
	case "totalSupply":
		return []any{new(big.Int).Set(l.supply)}, nil
	case "owner":
		return []any{l.owner}, nil
	case "balanceOf":
		return []any{new(big.Int).Set(l.balanceOf(args[0].(common.Address)))}, nil
	case "mint":
		to, amount := args[0].(common.Address), args[1].(*big.Int)
		if from != l.owner {
			return nil, l.revert("OwnableUnauthorizedAccount", from)
		}
		if to == (common.Address{}) {
			return nil, l.revert("ERC20InvalidReceiver", to)
		}
		l.balances[to] = new(big.Int).Add(l.balanceOf(to), amount)
		l.supply = new(big.Int).Add(l.supply, amount)
		return nil, nil
	case "transfer":
		to, amount := args[0].(common.Address), args[1].(*big.Int)
		if to == (common.Address{}) {
			return nil, l.revert("ERC20InvalidReceiver", to)
		}
		bal := l.balanceOf(from)
		if bal.Cmp(amount) < 0 {
			return nil, l.revert("ERC20InsufficientBalance", from, new(big.Int).Set(bal), amount)
		}
		l.balances[from] = new(big.Int).Sub(bal, amount)
		l.balances[to] = new(big.Int).Add(l.balanceOf(to), amount)
		return []any{true}, nil
	}
	return nil, revertString("unsupported function " + method)
}

func (l *Ledger) revert(name string, args ...any) *rpcError {
	e := l.tokenABI.Errors[name]
	enc, err := e.Inputs.Pack(args...)
	if err != nil {
		return &rpcError{Code: -32603, Message: err.Error()}
	}
	data := append(append([]byte{}, e.ID[:4]...), enc...)
	return &rpcError{Code: 3, Message: "execution reverted", Data: hexutil.Encode(data)}
}

// revertString encodes a plain Error(string) revert.
func revertString(reason string) *rpcError {
	strType, _ := abi.NewType("string", "", nil)
	enc, _ := abi.Arguments{{Type: strType}}.Pack(reason)
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, enc...)
	return &rpcError{Code: 3, Message: "execution reverted: " + reason, Data: hexutil.Encode(data)}
}

// --- SavingCore ---

func (l *Ledger) core(method string, args []any) ([]any, *rpcError) {
	switch method {
	case "getPlanCount":
		return []any{big.NewInt(int64(len(l.plans)))}, nil
	case "getAllPlans":
		all := make([]Plan, len(l.plans))
		copy(all, l.plans)
		return []any{all}, nil
	case "getPlan":
		return []any{l.plan(args[0].(*big.Int))}, nil
	case "plans":
		id := args[0].(*big.Int)
		p := l.plan(id)
		if id.IsUint64() {
			if o, ok := l.mappingOverride[id.Uint64()]; ok {
				p = o
			}
		}
		return []any{p.PlanId, p.TenorSeconds, p.AprBps, p.IsActive}, nil
	}
	return nil, revertString("unsupported function " + method)
}

// plan returns the stored plan or the all-zero record for unknown ids.
func (l *Ledger) plan(id *big.Int) Plan {
	if id.Sign() > 0 && id.IsUint64() && id.Uint64() <= uint64(len(l.plans)) {
		return l.plans[id.Uint64()-1]
	}
	return Plan{PlanId: new(big.Int), TenorSeconds: new(big.Int), AprBps: new(big.Int)}
}
