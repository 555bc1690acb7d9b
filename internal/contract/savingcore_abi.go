package contract

// SavingCore holds the catalogue of deposit plans. Only the read surface used
// by savingctl is embedded here.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "savingcore",
		Name:        "SavingCore",
		Description: "Term-deposit plan catalogue (getPlan, plans, getAllPlans, getPlanCount).",
		ABI:         savingCoreABI,
	})
}

// planComponents is the on-chain Plan struct.
var planComponents = []ABIParam{
	{Name: "planId", Type: "uint256"},
	{Name: "tenorSeconds", Type: "uint256"},
	{Name: "aprBps", Type: "uint256"},
	{Name: "isActive", Type: "bool"},
}

var savingCoreABI = []ABIEntry{
	{
		Name: "getPlan", Type: "function",
		Inputs: []ABIParam{{Name: "planId", Type: "uint256"}},
		Outputs: []ABIParam{{
			Name: "", Type: "tuple", InternalType: "struct SavingCore.Plan",
			Components: planComponents,
		}},
		StateMutability: "view",
	},
	{
		// Public mapping getter: struct fields come back flattened.
		Name: "plans", Type: "function",
		Inputs:          []ABIParam{{Name: "", Type: "uint256"}},
		Outputs:         planComponents,
		StateMutability: "view",
	},
	{
		Name: "getAllPlans", Type: "function",
		Outputs: []ABIParam{{
			Name: "", Type: "tuple[]", InternalType: "struct SavingCore.Plan[]",
			Components: planComponents,
		}},
		StateMutability: "view",
	},
	{
		Name: "getPlanCount", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "PlanCreated", Type: "event",
		Inputs: []ABIParam{
			{Name: "planId", Type: "uint256", Indexed: true},
			{Name: "tenorSeconds", Type: "uint256"},
			{Name: "aprBps", Type: "uint256"},
		},
	},
}
