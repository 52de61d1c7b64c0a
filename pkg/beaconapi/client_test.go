package beaconapi

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
)

func hexRepeat(b byte, n int) string {
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = b
	}
	return "0x" + hex.EncodeToString(raw)
}

func pubkeysJSON(n int) string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = `"` + hexRepeat(0x02, blslightclient.PubKeySize) + `"`
	}
	return "[" + strings.Join(keys, ",") + "]"
}

func TestHeaderParsesBeaconAPIResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"header":{"message":{
			"slot":"100","proposer_index":"7",
			"parent_root":"` + hexRepeat(0x01, 32) + `",
			"state_root":"` + hexRepeat(0x02, 32) + `",
			"body_root":"` + hexRepeat(0x03, 32) + `"
		}}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	h, err := c.Header(context.Background(), "100")
	require.NoError(t, err)
	require.Equal(t, uint64(100), h.Slot)
	require.Equal(t, uint64(7), h.ProposerIndex)
}

func TestBootstrapParsesCommitteeAndBranch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"header":{"beacon":{
				"slot":"64","proposer_index":"1",
				"parent_root":"` + hexRepeat(0x01, 32) + `",
				"state_root":"` + hexRepeat(0x02, 32) + `",
				"body_root":"` + hexRepeat(0x03, 32) + `"
			}},
			"current_sync_committee":{
				"pubkeys":` + pubkeysJSON(blslightclient.CommitteeSize) + `,
				"aggregate_pubkey":"` + hexRepeat(0x04, blslightclient.PubKeySize) + `"
			},
			"current_sync_committee_branch":["` + hexRepeat(0x05, 32) + `","` + hexRepeat(0x06, 32) + `"]
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	root, err := codec.BytesToHash32(make([]byte, 32))
	require.NoError(t, err)

	bootstrap, err := c.Bootstrap(context.Background(), root, lightclient.AltairForkSchedule)
	require.NoError(t, err)
	require.Equal(t, uint64(64), bootstrap.Header.Slot)
	require.Len(t, bootstrap.CurrentSyncCommittee.Pubkeys, blslightclient.CommitteeSize)
	require.Equal(t, lightclient.AltairForkSchedule.NextSyncCommitteeIndex-1, bootstrap.CurrentSyncCommitteeBranch.Index)
	require.Len(t, bootstrap.CurrentSyncCommitteeBranch.Hashes, 2)
}

func TestBlockReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raw-ssz-body"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	raw, err := c.Block(context.Background(), "head")
	require.NoError(t, err)
	require.Equal(t, "raw-ssz-body", string(raw))
}
