// Package beaconapi is a minimal client for the five read-only beacon-node
// HTTP endpoints the light client depends on (spec section 6). The
// beacon API's JSON/RPC boilerplate is explicitly out of this bridge's
// scope beyond exercising these five endpoints, so the client here
// decodes just enough of each response to populate pkg/lightclient's
// types and does not attempt to be a general beacon-API SDK.
package beaconapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
)

// Client reaches a single beacon node's light-client and block APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (e.g. for custom
// timeouts or transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client against baseURL (e.g. "http://localhost:5052").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     log.New(log.Writer(), "[BeaconAPI] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap fetches GET /eth/v1/beacon/light_client/bootstrap/{checkpoint_root}.
// fork resolves the generalized index of the current sync committee
// within the beacon state, which varies by fork (spec section 9).
func (c *Client) Bootstrap(ctx context.Context, checkpointRoot codec.Hash32, fork lightclient.ForkSchedule) (*lightclient.Bootstrap, error) {
	var resp struct {
		Data struct {
			Header struct {
				Beacon headerJSON `json:"beacon"`
			} `json:"header"`
			CurrentSyncCommittee       committeeJSON `json:"current_sync_committee"`
			CurrentSyncCommitteeBranch []string      `json:"current_sync_committee_branch"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/eth/v1/beacon/light_client/bootstrap/%s", checkpointRoot.Hex())
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	header, err := resp.Data.Header.Beacon.toHeader()
	if err != nil {
		return nil, fmt.Errorf("beaconapi: bootstrap header: %w", err)
	}
	committee, err := resp.Data.CurrentSyncCommittee.toCommittee()
	if err != nil {
		return nil, fmt.Errorf("beaconapi: bootstrap committee: %w", err)
	}
	branch, err := decodeBranch(resp.Data.CurrentSyncCommitteeBranch)
	if err != nil {
		return nil, fmt.Errorf("beaconapi: bootstrap branch: %w", err)
	}
	// current_sync_committee is the left sibling of next_sync_committee
	// in the beacon state's generalized-index tree on every fork this
	// bridge targets.
	branch.Index = fork.NextSyncCommitteeIndex - 1

	return &lightclient.Bootstrap{
		Header:                     header,
		CurrentSyncCommittee:       committee,
		CurrentSyncCommitteeBranch: branch,
	}, nil
}

// FinalityUpdate fetches GET /eth/v1/beacon/light_client/finality_update.
func (c *Client) FinalityUpdate(ctx context.Context, fork lightclient.ForkSchedule) (*lightclient.SyncUpdate, error) {
	var resp struct {
		Data syncUpdateJSON `json:"data"`
	}
	if err := c.getJSON(ctx, "/eth/v1/beacon/light_client/finality_update", &resp); err != nil {
		return nil, err
	}
	update, err := resp.Data.toSyncUpdate(fork)
	if err != nil {
		return nil, fmt.Errorf("beaconapi: finality update: %w", err)
	}
	return update, nil
}

// Updates fetches GET /eth/v1/beacon/light_client/updates?start_period=P&count=C.
// C is capped at 128 per spec.
func (c *Client) Updates(ctx context.Context, startPeriod uint64, count int, fork lightclient.ForkSchedule) ([]*lightclient.SyncUpdate, error) {
	if count > 128 {
		count = 128
	}
	var resp []struct {
		Data syncUpdateJSON `json:"data"`
	}
	path := fmt.Sprintf("/eth/v1/beacon/light_client/updates?start_period=%d&count=%d", startPeriod, count)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	updates := make([]*lightclient.SyncUpdate, 0, len(resp))
	for i, entry := range resp {
		update, err := entry.Data.toSyncUpdate(fork)
		if err != nil {
			return nil, fmt.Errorf("beaconapi: update %d: %w", i, err)
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// Header fetches GET /eth/v1/beacon/headers/{slot_or_root}.
func (c *Client) Header(ctx context.Context, slotOrRoot string) (lightclient.Header, error) {
	var resp struct {
		Data struct {
			Header struct {
				Message headerJSON `json:"message"`
			} `json:"header"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/eth/v1/beacon/headers/%s", url.PathEscape(slotOrRoot))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return lightclient.Header{}, err
	}
	return resp.Data.Header.Message.toHeader()
}

// Block fetches GET /eth/v1/beacon/blocks/{slot_or_root} and returns the
// raw SSZ-encoded block body, left undecoded since this bridge only needs
// it to locate the execution payload's receipts root for receipt proofs.
func (c *Client) Block(ctx context.Context, slotOrRoot string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/eth/v1/beacon/blocks/"+url.PathEscape(slotOrRoot), nil)
	if err != nil {
		return nil, fmt.Errorf("beaconapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("beaconapi: request block: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("beaconapi: request block: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("beaconapi: read block body: %w", err)
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("beaconapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("beaconapi: request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("beaconapi: request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("beaconapi: decode %s: %w", path, err)
	}
	return nil
}

func parseUintString(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
