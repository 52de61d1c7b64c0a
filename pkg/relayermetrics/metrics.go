// Package relayermetrics exposes the relayer's operational counters and
// gauges to Prometheus. Building a metrics exporter CLI or dashboard is
// out of this bridge's scope, but the ambient instrumentation point
// itself is carried the way the rest of the ecosystem wires
// prometheus/client_golang: package-level promauto collectors registered
// against the default registry.
package relayermetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bridge_relayer"

var (
	// MessagesRelayed counts successfully relayed messages, partitioned
	// by direction ("eth_to_sidechain" / "sidechain_to_eth").
	MessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_relayed_total",
		Help:      "Total number of messages successfully relayed, by direction.",
	}, []string{"direction"})

	// MerkleRootsSubmitted counts successful on-chain Merkle-root
	// submissions.
	MerkleRootsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "merkle_roots_submitted_total",
		Help:      "Total number of Merkle roots submitted to the Ethereum contract.",
	})

	// RelayErrors counts relay attempts that failed, partitioned by the
	// owning subpackage and whether the error was recoverable.
	RelayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_errors_total",
		Help:      "Total number of failed relay attempts, by component and recoverability.",
	}, []string{"component", "recoverable"})

	// PendingTransactions reports the current size of the transaction
	// store's pending set.
	PendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_transactions",
		Help:      "Number of transactions in pkg/txstore that have not yet finalized.",
	})

	// ProofCacheSize reports the number of authority-set proofs currently
	// cached by pkg/grandpa.
	ProofCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "proof_cache_size",
		Help:      "Number of authority-set finality proofs currently cached.",
	})

	// KillswitchState reports the observer's current state as an
	// enumerated gauge (0=ScanForEvents, 1=ChallengeRoot,
	// 2=SubmitMerkleRoot, 3=Exit).
	KillswitchState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "killswitch_state",
		Help:      "Current state of the killswitch observer's state machine.",
	})

	// LaggedSubscribers counts how many times a listener subscriber's
	// channel was full and a notification was dropped for it.
	LaggedSubscribers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lagged_subscribers_total",
		Help:      "Total number of times a listener subscriber lagged and missed notifications.",
	}, []string{"listener"})
)
