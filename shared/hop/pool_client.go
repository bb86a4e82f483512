package hop

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"bonder-stake/chains"
	"bonder-stake/core"

	"github.com/ChainSafe/log15"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
)

const ReceiptPollInterval = time.Second * 6

var ErrReadOnly = errors.New("client has no signing key")

// PoolClient is the bonder's view of one chain. The rpc connection is
// opened on first use.
type PoolClient struct {
	cfg          *core.ChainConfig
	kp           *secp256k1.Keypair
	fromAddress  common.Address
	log          log15.Logger
	pollInterval time.Duration

	mu        sync.Mutex
	ethClient *ethclient.Client
	chainId   *big.Int
}

// NewPoolClient binds a client to cfg. kp may be nil for read-only use.
func NewPoolClient(cfg *core.ChainConfig, from common.Address, kp *secp256k1.Keypair, log log15.Logger) *PoolClient {
	if kp != nil {
		from = kp.CommonAddress()
	}
	return &PoolClient{
		cfg:          cfg,
		kp:           kp,
		fromAddress:  from,
		log:          log,
		pollInterval: ReceiptPollInterval,
	}
}

func (p *PoolClient) GetEthClient() (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ethClient != nil {
		return p.ethClient, nil
	}
	ethClient, err := ethclient.Dial(p.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.cfg.Name, err)
	}
	p.ethClient = ethClient
	return ethClient, nil
}

func (p *PoolClient) getChainId(ctx context.Context, ethClient *ethclient.Client) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chainId != nil {
		return p.chainId, nil
	}
	chainId, err := ethClient.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	p.chainId = chainId
	return chainId, nil
}

func (p *PoolClient) From() common.Address {
	return p.fromAddress
}

func (p *PoolClient) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ethClient != nil {
		p.ethClient.Close()
		p.ethClient = nil
	}
}

func (p *PoolClient) GetCallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{
		Pending: false,
		From:    p.fromAddress,
		Context: ctx,
	}
}

func (p *PoolClient) GetTransactionOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if p.kp == nil {
		return nil, ErrReadOnly
	}
	ethClient, err := p.GetEthClient()
	if err != nil {
		return nil, err
	}
	chainId, err := p.getChainId(ctx, ethClient)
	if err != nil {
		return nil, err
	}
	suggestGasPrice, err := ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if p.cfg.MaxGasPrice > 0 && suggestGasPrice.Cmp(big.NewInt(p.cfg.MaxGasPrice*1e9)) > 0 {
		suggestGasPrice = big.NewInt(p.cfg.MaxGasPrice * 1e9)
	}

	opts := bind.TransactOpts{
		From: p.fromAddress,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return signTx(tx, p.kp.PrivateKey(), chainId)
		},
		GasPrice: suggestGasPrice,
		GasLimit: p.cfg.GasLimit,
		Context:  ctx,
	}
	return &opts, nil
}

func signTx(rawTx *types.Transaction, privateKey *ecdsa.PrivateKey, chainId *big.Int) (*types.Transaction, error) {
	return types.SignTx(rawTx, types.LatestSignerForChainID(chainId), privateKey)
}

func (p *PoolClient) bound(address common.Address, parsed abi.ABI) (*bind.BoundContract, error) {
	ethClient, err := p.GetEthClient()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, parsed, ethClient, ethClient, ethClient), nil
}

func (p *PoolClient) call(ctx context.Context, address common.Address, parsed abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	contract, err := p.bound(address, parsed)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	if err := contract.Call(p.GetCallOpts(ctx), &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s.%s on %s: %w", address.Hex(), method, p.cfg.Name, err)
	}
	return out, nil
}

func (p *PoolClient) transact(ctx context.Context, address common.Address, parsed abi.ABI, method string, params ...interface{}) (*types.Transaction, error) {
	contract, err := p.bound(address, parsed)
	if err != nil {
		return nil, err
	}
	opts, err := p.GetTransactionOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("send %s on %s: %w", method, p.cfg.Name, err)
	}
	p.log.Info("send tx", "method", method, "to", address, "gasPrice", tx.GasPrice().String(), "nonce", tx.Nonce(), "txHash", tx.Hash(), "gas", tx.Gas())
	return tx, nil
}

// WaitConfirmed polls for the receipt of tx and then for the configured
// confirmation depth. It never gives up on its own; cancel ctx to stop.
func (p *PoolClient) WaitConfirmed(ctx context.Context, op string, tx *types.Transaction) error {
	ethClient, err := p.GetEthClient()
	if err != nil {
		return err
	}

	var receipt *types.Receipt
	for {
		receipt, err = ethClient.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			break
		}
		if !errors.Is(err, ethereum.NotFound) {
			p.log.Warn("check tx receipt failed, waiting...", "tx", tx.Hash(), "err", err)
		}
		if err := p.sleep(ctx); err != nil {
			return err
		}
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return &core.OnChainRevertError{Chain: p.cfg.Name, Op: op, TxHash: tx.Hash()}
	}

	if p.cfg.Confirmations > 1 {
		target := receipt.BlockNumber.Uint64() + p.cfg.Confirmations - 1
		for {
			head, err := ethClient.BlockNumber(ctx)
			if err == nil && head >= target {
				break
			}
			if err != nil {
				p.log.Warn("get block number failed, waiting...", "err", err)
			}
			if err := p.sleep(ctx); err != nil {
				return err
			}
		}
	}
	p.log.Info("tx confirmed", "op", op, "txHash", tx.Hash(), "block", receipt.BlockNumber)
	return nil
}

func (p *PoolClient) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.pollInterval):
		return nil
	}
}

var _ chains.ChainClient = (*PoolClient)(nil)
