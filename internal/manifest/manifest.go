// Package manifest turns compiler artifacts into per-contract deployment
// manifests ({address, abi}) and bare ABI files, and reads manifests back.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrArtifactMissing = errors.New("artifact missing or unreadable")
	ErrInvalidAddress  = errors.New("invalid contract address")
)

// Source locates one contract: where it is deployed and which artifact holds
// its ABI.
type Source struct {
	Address string
	ABIPath string
}

// Manifest is the file written per contract.
type Manifest struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

// Result is the outcome for one entry.
type Result struct {
	Name string
	Path string
	Err  error
}

// Report collects the per-entry results of one run.
type Report struct {
	OutDir  string
	Results []Result
}

// Complete reports whether the output directory exists and every entry
// produced its file.
func (r *Report) Complete() bool {
	if info, err := os.Stat(r.OutDir); err != nil || !info.IsDir() {
		return false
	}
	for _, res := range r.Results {
		if res.Err != nil {
			return false
		}
		if _, err := os.Stat(res.Path); err != nil {
			return false
		}
	}
	return true
}

// Failed lists the entries that did not produce a file.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Written lists the files produced.
func (r *Report) Written() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Assemble writes <outDir>/<name>.json as {address, abi} for each source.
// Entries are processed in name order; a failing entry is logged and recorded
// in its Result and does not stop the others.
func Assemble(sources map[string]Source, outDir string, log logrus.FieldLogger) *Report {
	return run(sources, outDir, log, "manifest", func(name string, src Source) ([]byte, error) {
		if !common.IsHexAddress(src.Address) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, src.Address)
		}
		abi, err := readABI(src.ABIPath)
		if err != nil {
			return nil, err
		}
		return Marshal(Manifest{Address: common.HexToAddress(src.Address).Hex(), ABI: abi})
	})
}

// ExtractABIs writes <abiDir>/<name>.json containing only the ABI array.
// The address of each Source is ignored.
func ExtractABIs(sources map[string]Source, abiDir string, log logrus.FieldLogger) *Report {
	return run(sources, abiDir, log, "abi", func(name string, src Source) ([]byte, error) {
		abi, err := readABI(src.ABIPath)
		if err != nil {
			return nil, err
		}
		return indent(abi)
	})
}

// Marshal renders a manifest as indented JSON with a trailing newline.
func Marshal(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Read parses one manifest file.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if !common.IsHexAddress(m.Address) {
		return nil, fmt.Errorf("manifest %s: %w: %q", path, ErrInvalidAddress, m.Address)
	}
	return &m, nil
}

// ArtifactPath is where Hardhat writes the artifact of a contract compiled
// from contracts/<name>.sol.
func ArtifactPath(artifactsDir, name string) string {
	return filepath.Join(artifactsDir, name+".sol", name+".json")
}

// SourcesFor builds sources for every protocol contract deployed on network,
// pointing at the Hardhat artifacts under artifactsDir.
func SourcesFor(p *protocol.Protocol, network, artifactsDir string) (map[string]Source, error) {
	addrs, err := p.AddressesFor(network)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Source)
	for name, addr := range addrs.ByName() {
		out[name] = Source{Address: addr, ABIPath: ArtifactPath(artifactsDir, name)}
	}
	return out, nil
}

type render func(name string, src Source) ([]byte, error)

func run(sources map[string]Source, outDir string, log logrus.FieldLogger, kind string, fn render) *Report {
	report := &Report{OutDir: outDir}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.WithError(err).WithField("dir", outDir).Error("cannot create output directory")
		for _, name := range names {
			report.Results = append(report.Results, Result{Name: name, Err: err})
		}
		return report
	}

	for _, name := range names {
		path := filepath.Join(outDir, name+".json")
		res := Result{Name: name, Path: path}
		entryLog := log.WithFields(logrus.Fields{"contract": name, "kind": kind})

		data, err := fn(name, sources[name])
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", name, err)
			entryLog.WithError(err).Error("skipping entry")
		} else {
			entryLog.WithField("path", path).Info("written")
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func readABI(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no artifact path", ErrArtifactMissing)
	}
	abi, err := contract.ExtractABI(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	return abi, nil
}

func indent(raw json.RawMessage) ([]byte, error) {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
