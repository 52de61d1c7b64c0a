package bindings

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge"
)

const relayerABI = `[
	{"type":"function","name":"getMerkleRoot","inputs":[{"name":"blockNumber","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}],"stateMutability":"view"},
	{"type":"function","name":"submitMerkleRoot","inputs":[{"name":"blockNumber","type":"uint256"},{"name":"root","type":"bytes32"},{"name":"proof","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"}
]`

type jsonrpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func newFakeEthNode(t *testing.T, ethCall func() (string, error)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = "0x1"
		case "eth_call":
			result, err := ethCall()
			if err != nil {
				resp["error"] = map[string]interface{}{"code": -32000, "message": err.Error()}
			} else {
				resp["result"] = result
			}
		default:
			resp["result"] = nil
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestGetMerkleRootDecodesResult(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(relayerABI))
	require.NoError(t, err)
	var want [32]byte
	want[31] = 0x42
	encoded, err := parsed.Methods["getMerkleRoot"].Outputs.Pack(want)
	require.NoError(t, err)

	srv := newFakeEthNode(t, func() (string, error) {
		return "0x" + hex.EncodeToString(encoded), nil
	})
	defer srv.Close()

	client, err := ethbridge.NewClient(srv.URL, 1)
	require.NoError(t, err)

	r := NewRelayer(client, Config{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), ABIJSON: relayerABI})
	root, err := r.GetMerkleRoot(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, want, root)
}

func TestGetMerkleRootPropagatesMalformedABI(t *testing.T) {
	client, err := ethbridge.NewClient("http://127.0.0.1:0", 1)
	require.NoError(t, err)

	r := NewRelayer(client, Config{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), ABIJSON: "not json"})
	_, err = r.GetMerkleRoot(context.Background(), 100)
	require.Error(t, err)
}
