package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sony/gobreaker"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// rpcNode answers the JSON-RPC methods the client calls, from canned state.
type rpcNode struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	// status is the single getSignatureStatuses entry; nil reports the signature as unknown.
	status   any
	rejectTx bool
	sent     []*solana.Transaction
	calls    map[string]int
}

func newRPCNode(t *testing.T) (*rpcNode, string) {
	t.Helper()
	node := &rpcNode{accounts: make(map[solana.PublicKey][]byte), calls: make(map[string]int)}
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)
	return node, server.URL
}

func confirmed() any {
	return map[string]any{"slot": 1, "confirmations": nil, "err": nil, "confirmationStatus": "confirmed"}
}

func (n *rpcNode) setStatus(status any) {
	n.mu.Lock()
	n.status = status
	n.mu.Unlock()
}

func (n *rpcNode) rejectTransactions() {
	n.mu.Lock()
	n.rejectTx = true
	n.mu.Unlock()
}

func (n *rpcNode) setAccount(addr solana.PublicKey, data []byte) {
	n.mu.Lock()
	n.accounts[addr] = data
	n.mu.Unlock()
}

func (n *rpcNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *rpcNode) transactions() []*solana.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*solana.Transaction(nil), n.sent...)
}

func (n *rpcNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[req.Method]++

	slot := map[string]any{"slot": 1}
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "getAccountInfo":
		var addr solana.PublicKey
		_ = json.Unmarshal(req.Params[0], &addr)
		var value any
		if data, ok := n.accounts[addr]; ok {
			value = map[string]any{
				"lamports":   1_000_000,
				"owner":      testProgram.String(),
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
				"rentEpoch":  0,
			}
		}
		resp["result"] = map[string]any{"context": slot, "value": value}
	case "getLatestBlockhash":
		resp["result"] = map[string]any{"context": slot, "value": map[string]any{
			"blockhash":            solana.Hash{7}.String(),
			"lastValidBlockHeight": 100,
		}}
	case "getMinimumBalanceForRentExemption":
		resp["result"] = 1_000_000
	case "sendTransaction":
		if n.rejectTx {
			resp["error"] = map[string]any{"code": -32002, "message": "Transaction simulation failed"}
			break
		}
		var encoded string
		_ = json.Unmarshal(req.Params[0], &encoded)
		raw, _ := base64.StdEncoding.DecodeString(encoded)
		tx, err := solana.TransactionFromBytes(raw)
		if err != nil {
			resp["error"] = map[string]any{"code": -32602, "message": err.Error()}
			break
		}
		n.sent = append(n.sent, tx)
		resp["result"] = tx.Signatures[0].String()
	case "getSignatureStatuses":
		resp["result"] = map[string]any{"context": slot, "value": []any{n.status}}
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(url string, opts ...ClientOption) *Client {
	return NewClient(url, solana.NewWallet().PrivateKey, rpc.CommitmentConfirmed, opts...)
}

func newTestExchange(t *testing.T, client *Client) *Exchange {
	t.Helper()
	ex, err := NewExchange(client, NewOracle(client, testOracle), testProgram, solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("NewExchange returned error: %v", err)
	}
	return ex
}

func noop() []solana.Instruction {
	return []solana.Instruction{solana.NewInstruction(testProgram, solana.AccountMetaSlice{}, []byte{1})}
}

func mustEncode(t *testing.T, name string, v any) []byte {
	t.Helper()
	data, err := encodeAccount(name, v)
	if err != nil {
		t.Fatalf("encodeAccount returned error: %v", err)
	}
	return data
}

func TestAccountDataMissing(t *testing.T) {
	_, url := newRPCNode(t)
	client := newTestClient(url)
	addr := solana.NewWallet().PublicKey()

	if _, _, err := client.AccountData(context.Background(), addr); !errors.Is(err, exchange.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	exists, err := client.AccountExists(context.Background(), addr)
	if err != nil || exists {
		t.Fatalf("expected missing account, got %v (%v)", exists, err)
	}
}

func TestAccountDataReturnsBytes(t *testing.T) {
	node, url := newRPCNode(t)
	addr := solana.NewWallet().PublicKey()
	node.setAccount(addr, []byte{1, 2, 3})

	data, owner, err := newTestClient(url).AccountData(context.Background(), addr)
	if err != nil {
		t.Fatalf("AccountData returned error: %v", err)
	}
	if len(data) != 3 || data[2] != 3 {
		t.Fatalf("unexpected data %v", data)
	}
	if !owner.Equals(testProgram) {
		t.Fatalf("unexpected owner %s", owner)
	}
}

func TestSubmitConfirmed(t *testing.T) {
	node, url := newRPCNode(t)
	node.setStatus(confirmed())
	client := newTestClient(url)

	sig, err := client.Submit(context.Background(), "noop", noop())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	sent := node.transactions()
	if len(sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(sent))
	}
	if sig != sent[0].Signatures[0] {
		t.Fatalf("signature %s does not match sent transaction", sig)
	}
	if !sent[0].Message.AccountKeys[0].Equals(client.Payer.PublicKey()) {
		t.Fatalf("payer is not the fee payer")
	}
	if sent[0].Message.RecentBlockhash != (solana.Hash{7}) {
		t.Fatalf("unexpected blockhash %s", sent[0].Message.RecentBlockhash)
	}
}

func TestSubmitTransactionFailed(t *testing.T) {
	node, url := newRPCNode(t)
	node.setStatus(map[string]any{
		"slot":               1,
		"confirmations":      nil,
		"err":                map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 6}}},
		"confirmationStatus": "confirmed",
	})

	_, err := newTestClient(url).Submit(context.Background(), "noop", noop())
	if !errors.Is(err, exchange.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
	if n := node.count("getSignatureStatuses"); n != 1 {
		t.Fatalf("failed transaction should not be polled again, got %d polls", n)
	}
}

func TestSubmitConfirmationTimeout(t *testing.T) {
	node, url := newRPCNode(t)
	// Processed never satisfies a confirmed commitment.
	node.setStatus(map[string]any{"slot": 1, "confirmations": 0, "err": nil, "confirmationStatus": "processed"})
	client := newTestClient(url, WithConfirmPolicy(5*time.Millisecond, 50*time.Millisecond))

	_, err := client.Submit(context.Background(), "noop", noop())
	if !errors.Is(err, exchange.ErrConfirmationTimeout) {
		t.Fatalf("expected ErrConfirmationTimeout, got %v", err)
	}
	if node.count("getSignatureStatuses") < 2 {
		t.Fatalf("expected repeated status polls")
	}
}

func TestSubmitCancelledIsNotTimeout(t *testing.T) {
	_, url := newRPCNode(t)
	client := newTestClient(url, WithConfirmPolicy(5*time.Millisecond, time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Submit(ctx, "noop", noop())
	if err == nil || errors.Is(err, exchange.ErrConfirmationTimeout) {
		t.Fatalf("expected caller cancellation, got %v", err)
	}
}

func TestBreakerOpensAfterSendFailures(t *testing.T) {
	node, url := newRPCNode(t)
	node.rejectTransactions()
	client := newTestClient(url)

	for i := 0; i < 3; i++ {
		_, err := client.Submit(context.Background(), "noop", noop())
		if err == nil || !strings.Contains(err.Error(), "noop: send") {
			t.Fatalf("attempt %d: expected send error, got %v", i, err)
		}
	}
	_, err := client.Submit(context.Background(), "noop", noop())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if n := node.count("sendTransaction"); n != 3 {
		t.Fatalf("open circuit should not reach the node, got %d sends", n)
	}
}

func TestInitExchangeRefusesExistingState(t *testing.T) {
	node, url := newRPCNode(t)
	ex := newTestExchange(t, newTestClient(url))
	node.setAccount(ex.StateAddr, []byte{0})

	err := ex.InitExchange(context.Background(), exchange.InitParams{Admin: ex.Payer.PublicKey()})
	if !errors.Is(err, exchange.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if n := node.count("sendTransaction"); n != 0 {
		t.Fatalf("expected no transaction, got %d", n)
	}
}

func TestSetAssetsListChecks(t *testing.T) {
	node, url := newRPCNode(t)
	node.setStatus(confirmed())
	ex := newTestExchange(t, newTestClient(url))
	list := solana.NewWallet().PublicKey()
	st := exchange.State{
		Admin:             ex.Payer.PublicKey(),
		ExchangeAuthority: ex.Authority,
		Initialized:       true,
	}
	ctx := context.Background()

	attached := st
	attached.AssetsList = solana.NewWallet().PublicKey()
	node.setAccount(ex.StateAddr, mustEncode(t, "State", attached))
	if err := ex.SetAssetsList(ctx, list); !errors.Is(err, exchange.ErrAssetsListAlreadySet) {
		t.Fatalf("expected ErrAssetsListAlreadySet, got %v", err)
	}

	foreign := st
	foreign.Admin = solana.NewWallet().PublicKey()
	node.setAccount(ex.StateAddr, mustEncode(t, "State", foreign))
	if err := ex.SetAssetsList(ctx, list); !errors.Is(err, exchange.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := node.count("sendTransaction"); n != 0 {
		t.Fatalf("rejected calls must not send, got %d", n)
	}

	node.setAccount(ex.StateAddr, mustEncode(t, "State", st))
	if err := ex.SetAssetsList(ctx, list); err != nil {
		t.Fatalf("SetAssetsList returned error: %v", err)
	}
	sent := node.transactions()
	if len(sent) != 1 || !hasKey(sent[0], list) {
		t.Fatalf("expected one transaction referencing the list")
	}
}

func TestSetAssetsListStateMissing(t *testing.T) {
	_, url := newRPCNode(t)
	ex := newTestExchange(t, newTestClient(url))
	if err := ex.SetAssetsList(context.Background(), solana.NewWallet().PublicKey()); !errors.Is(err, exchange.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddSyntheticRequiresMint(t *testing.T) {
	node, url := newRPCNode(t)
	ex := newTestExchange(t, newTestClient(url))

	err := ex.AddSynthetic(context.Background(), exchange.SyntheticParams{
		AssetAddress: solana.NewWallet().PublicKey(),
		AssetsList:   solana.NewWallet().PublicKey(),
		MaxSupply:    1,
		PriceFeed:    solana.NewWallet().PublicKey(),
	})
	if !errors.Is(err, exchange.ErrMintNotFound) {
		t.Fatalf("expected ErrMintNotFound, got %v", err)
	}
	if n := node.count("sendTransaction"); n != 0 {
		t.Fatalf("expected no transaction, got %d", n)
	}
}

func TestUpdatePricesPassesPricedFeeds(t *testing.T) {
	node, url := newRPCNode(t)
	node.setStatus(confirmed())
	ex := newTestExchange(t, newTestClient(url))
	addr := solana.NewWallet().PublicKey()
	collateralFeed := solana.NewWallet().PublicKey()
	btcFeed := solana.NewWallet().PublicKey()
	node.setAccount(addr, mustEncode(t, "AssetsList", exchange.AssetsList{
		Initialized: true,
		Assets: []exchange.Asset{
			{LastUpdate: exchange.NeverUpdated},
			{FeedAddress: collateralFeed},
			{FeedAddress: btcFeed},
		},
	}))

	if err := ex.UpdatePrices(context.Background(), addr); err != nil {
		t.Fatalf("UpdatePrices returned error: %v", err)
	}
	sent := node.transactions()
	if len(sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(sent))
	}
	ix := sent[0].Message.Instructions[0]
	// list, clock and one account per priced feed
	if len(ix.Accounts) != 4 {
		t.Fatalf("expected 4 accounts, got %d", len(ix.Accounts))
	}
	for _, feed := range []solana.PublicKey{collateralFeed, btcFeed} {
		if !hasKey(sent[0], feed) {
			t.Fatalf("feed %s missing from transaction", feed)
		}
	}
}

func hasKey(tx *solana.Transaction, key solana.PublicKey) bool {
	for _, k := range tx.Message.AccountKeys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}
