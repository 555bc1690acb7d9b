package contract

// MockUSDC is the protocol's 6-decimal test stablecoin.
// Contract: OpenZeppelin v5 ERC20 + Ownable with an owner-only mint.
//
// Function selectors:
//
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
//	transfer(a,u256)    → 0xa9059cbb
//	owner()             → 0x8da5cb5b
//	mint(a,u256)        → 0x40c10f19
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "mockusdc",
		Name:        "MockUSDC",
		Description: "6-decimal ERC-20 stablecoin with owner-only mint.",
		ABI:         mockUSDCABI,
	})
}

var mockUSDCABI = []ABIEntry{
	// ── Read ─────────────────────────────────────────────────────────────────
	{
		Name: "name", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "decimals", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint8"}},
		StateMutability: "view",
	},
	{
		Name: "totalSupply", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "balanceOf", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "owner", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},

	// ── Write ────────────────────────────────────────────────────────────────
	{
		Name: "transfer", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "mint", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},

	// ── Events ───────────────────────────────────────────────────────────────
	{
		Name: "Transfer", Type: "event",
		Inputs: []ABIParam{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},

	// ── Errors ───────────────────────────────────────────────────────────────
	{
		Name: "OwnableUnauthorizedAccount", Type: "error",
		Inputs: []ABIParam{{Name: "account", Type: "address"}},
	},
	{
		Name: "ERC20InsufficientBalance", Type: "error",
		Inputs: []ABIParam{
			{Name: "sender", Type: "address"},
			{Name: "balance", Type: "uint256"},
			{Name: "needed", Type: "uint256"},
		},
	},
	{
		Name: "ERC20InvalidReceiver", Type: "error",
		Inputs: []ABIParam{{Name: "receiver", Type: "address"}},
	},
}
