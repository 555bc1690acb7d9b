package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/config"
	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/Mohsinsiddi/savingctl/internal/manifest"
	"github.com/Mohsinsiddi/savingctl/internal/wallet"
	"github.com/sirupsen/logrus"
)

// newKeystore opens the private key backend. Replaced in tests.
var newKeystore = func(dir string) wallet.KeystoreBackend {
	return wallet.DefaultKeystore(dir)
}

// resolveNetwork returns the --network flag or the configured default.
func resolveNetwork() string {
	if networkFlag != "" {
		return strings.ToLower(networkFlag)
	}
	return cfg.DefaultNetwork
}

// session is a connected network.
type session struct {
	client  *chain.EVMClient
	chain   *chain.Chain
	network string
}

// connect picks a healthy RPC for network: --rpc when given, otherwise the
// custom RPCs from config followed by the built-in ones.
func connect(ctx context.Context, network string) (*session, error) {
	c, err := chain.NewRegistry().GetByName(network)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q, run `savingctl network list` to see all networks", network)
	}

	urls := cfg.RPCs(c.Name, c.RPCs)
	if rpcFlag != "" {
		urls = []string{rpcFlag}
	}

	sctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := chain.SelectRPC(sctx, urls)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (add one with `savingctl config add-rpc %s <url>`)", c.Name, err, c.Name)
	}
	log.WithFields(logrus.Fields{"network": c.Name, "rpc": url}).Debug("rpc selected")

	return &session{client: chain.NewEVMClient(url), chain: c, network: c.Name}, nil
}

// chainID asks the node, so a misconfigured RPC is caught before signing.
func (s *session) chainID(ctx context.Context) (*big.Int, error) {
	id, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if id.Int64() != s.chain.ChainID {
		return nil, fmt.Errorf("rpc reports chain id %s, %s expects %d", id, s.network, s.chain.ChainID)
	}
	return id, nil
}

// contractAddress resolves a protocol contract on network. Deployment
// manifests win over the built-in address table.
func contractAddress(network, name string) (string, error) {
	reg := contract.NewRegistry()
	if err := manifest.LoadNetwork(reg, cfg.NetworkDeploymentsDir(network), network); err != nil {
		return "", fmt.Errorf("reading deployments: %w", err)
	}
	if e, err := reg.Get(name, network); err == nil {
		log.WithFields(logrus.Fields{"contract": name, "source": "manifest"}).Debug("address resolved")
		return e.Address, nil
	}
	return proto.Address(network, name)
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(newKeystore(cfg.Dir())),
	)
}

// selectedWallet returns the --wallet flag, the configured default or the
// wallet flagged as default in the store, in that order.
func selectedWallet(mgr *wallet.Manager) (*wallet.Wallet, error) {
	name := walletFlag
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name == "" {
		if w := mgr.Default(); w != nil {
			return w, nil
		}
		return nil, errors.New("no wallet selected, use --wallet <name> or `savingctl wallet use <name>`")
	}
	w, err := mgr.Get(name)
	if err != nil {
		return nil, fmt.Errorf("wallet %q not found, run `savingctl wallet list`", name)
	}
	return w, nil
}

// loadSigner returns the signer for write commands. SAVINGCTL_PRIVATE_KEY
// takes precedence over the wallet store.
func loadSigner() (*wallet.Signer, error) {
	if key := os.Getenv(wallet.EnvPrivateKey); key != "" {
		return wallet.SignerFromKey("env", key)
	}
	mgr := newWalletManager()
	w, err := selectedWallet(mgr)
	if err != nil {
		return nil, err
	}
	if w.Type != wallet.TypeSigning {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign transactions\n  Import a key with: savingctl wallet import <name> --key <private-key>", w.Name)
	}
	return mgr.Signer(w.Name)
}

// accountAddress resolves the account a read command reports on: an explicit
// argument, the env key, or the selected wallet.
func accountAddress(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if key := os.Getenv(wallet.EnvPrivateKey); key != "" {
		s, err := wallet.SignerFromKey("env", key)
		if err != nil {
			return "", err
		}
		return s.Address(), nil
	}
	w, err := selectedWallet(newWalletManager())
	if err != nil {
		return "", err
	}
	return w.Address, nil
}
