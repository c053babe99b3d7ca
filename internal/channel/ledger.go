package channel

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

type LedgerConfig struct {
	URL      string // JSON-RPC endpoint, e.g. a local Ganache node
	Sender   string
	Receiver string
}

// EthLedger records readings as zero-value transactions between a fixed
// wallet pair, the serialized reading in the transaction data field.
type EthLedger struct {
	client   *rpc.Client
	sender   common.Address
	receiver common.Address
	url      string
	log      *zap.Logger
}

func DialLedger(ctx context.Context, cfg LedgerConfig, log *zap.Logger) (*EthLedger, error) {
	client, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ledger dial %s: %w", cfg.URL, err)
	}
	return &EthLedger{
		client:   client,
		sender:   common.HexToAddress(cfg.Sender),
		receiver: common.HexToAddress(cfg.Receiver),
		url:      cfg.URL,
		log:      log,
	}, nil
}

// Connected reports whether the endpoint answers a chain ID query.
func (l *EthLedger) Connected(ctx context.Context) bool {
	var id hexutil.Big
	if err := l.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		l.log.Debug("ledger connectivity check failed",
			zap.String("url", l.url), zap.Error(err))
		return false
	}
	return true
}

type sendTxArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Data  hexutil.Bytes   `json:"data"`
}

// Send submits the payload as a zero-value transaction and returns the
// transaction hash. The node signs with the unlocked sender account, which
// is how Ganache-style development chains operate.
func (l *EthLedger) Send(ctx context.Context, payload []byte) (string, error) {
	args := sendTxArgs{
		From:  l.sender,
		To:    &l.receiver,
		Value: (*hexutil.Big)(new(big.Int)),
		Data:  payload,
	}
	var hash common.Hash
	if err := l.client.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return "", fmt.Errorf("ledger send: %w", err)
	}
	return hash.Hex(), nil
}

func (l *EthLedger) Close() {
	l.client.Close()
}
