package hop

import (
	"sync"

	"bonder-stake/chains"
	"bonder-stake/core"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
)

// Provider creates one PoolClient per configured chain and reuses it.
type Provider struct {
	configs map[string]*core.ChainConfig
	from    common.Address
	kp      *secp256k1.Keypair
	log     log15.Logger

	mu      sync.Mutex
	clients map[string]*PoolClient
}

func NewProvider(configs []*core.ChainConfig, from common.Address, kp *secp256k1.Keypair, log log15.Logger) *Provider {
	byName := make(map[string]*core.ChainConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.Name] = cfg
	}
	return &Provider{
		configs: byName,
		from:    from,
		kp:      kp,
		log:     log,
		clients: make(map[string]*PoolClient),
	}
}

func (p *Provider) Client(chain string) (chains.ChainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chain]; ok {
		return c, nil
	}
	cfg, ok := p.configs[chain]
	if !ok || cfg.Endpoint == "" {
		return nil, &core.ConfigError{Chain: chain, Reason: "no rpc endpoint configured"}
	}
	c := NewPoolClient(cfg, p.from, p.kp, p.log.New("chain", chain))
	p.clients[chain] = c
	return c, nil
}

func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		c.Close()
	}
}
