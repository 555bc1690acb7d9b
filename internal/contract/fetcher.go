package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFromArtifact loads an ABI from a local file that is either:
//   - a raw ABI JSON array: [{"type":"function",...}, ...]
//   - a Hardhat/Foundry artifact: {"abi":[...],"bytecode":"0x...",...}
//
// Both formats are detected automatically.
func LoadFromArtifact(path string) ([]ABIEntry, error) {
	raw, err := ExtractABI(path)
	if err != nil {
		return nil, err
	}
	return parseABI(raw)
}

// ExtractABI returns the ABI array of an artifact exactly as it appears in
// the file, after checking that it parses and declares at least one function
// or event.
func ExtractABI(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read ABI file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("ABI file is empty: %s", path)
	}

	raw := json.RawMessage(data)

	// Hardhat/Foundry artifact: an object with an "abi" array.
	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("invalid artifact JSON in %s: %w", path, err)
		}
		artifact.ABI = bytes.TrimSpace(artifact.ABI)
		if len(artifact.ABI) < 2 || artifact.ABI[0] != '[' {
			return nil, fmt.Errorf("artifact has no \"abi\" array: %s", path)
		}
		raw = artifact.ABI
	}

	abi, err := parseABI(raw)
	if err != nil {
		return nil, err
	}
	if err := validateABI(abi, path); err != nil {
		return nil, err
	}
	return raw, nil
}

func parseABI(data []byte) ([]ABIEntry, error) {
	var abi []ABIEntry
	if err := json.Unmarshal(data, &abi); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("file is a JSON object, not an ABI array; a Hardhat/Foundry artifact must have an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: expected an array of function/event definitions: %w", err)
	}
	return abi, nil
}

// validateABI checks that the parsed ABI has at least one function or event.
func validateABI(abi []ABIEntry, path string) error {
	if len(abi) == 0 {
		return fmt.Errorf("ABI is empty (no functions or events found): %s", path)
	}
	for _, e := range abi {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions or events: %s", len(abi), path)
}
