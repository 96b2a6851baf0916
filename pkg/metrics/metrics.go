// Copyright 2025 Certen Protocol
//
// Prometheus collectors for the gateway and ITS processors. Registered
// against a caller-supplied registry so tests can run isolated registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the module's collectors.
type Metrics struct {
	MessagesApproved  prometheus.Counter
	MessagesExecuted  prometheus.Counter
	SignersRotations  prometheus.Counter
	SignaturesChecked *prometheus.CounterVec
	SessionsOpened    prometheus.Counter
	SessionsValidated prometheus.Counter
	CurrentEpoch      prometheus.Gauge
	FlowDenials       *prometheus.CounterVec
	TransfersSent     prometheus.Counter
	TransfersReceived prometheus.Counter
}

// New builds and registers the collectors on reg. A nil registry returns a
// functional but unregistered set, which keeps processors usable in tests
// without a registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_messages_approved_total",
			Help: "Messages that transitioned to Approved; repeat approvals are not counted.",
		}),
		MessagesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_messages_executed_total",
			Help: "Messages that transitioned to Consumed.",
		}),
		SignersRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_signer_rotations_total",
			Help: "Successful verifier-set rotations.",
		}),
		SignaturesChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_signatures_checked_total",
			Help: "Signature submissions by outcome.",
		}, []string{"outcome"}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_verification_sessions_opened_total",
			Help: "Payload verification sessions created.",
		}),
		SessionsValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_verification_sessions_validated_total",
			Help: "Sessions that reached quorum.",
		}),
		CurrentEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_current_epoch",
			Help: "Current verifier-set epoch (low 64 bits).",
		}),
		FlowDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "its_flow_denials_total",
			Help: "Transfers denied by flow accounting, by direction.",
		}, []string{"direction"}),
		TransfersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "its_transfers_sent_total",
			Help: "Outbound interchain transfers accepted.",
		}),
		TransfersReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "its_transfers_received_total",
			Help: "Inbound interchain transfers consumed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.MessagesApproved,
			m.MessagesExecuted,
			m.SignersRotations,
			m.SignaturesChecked,
			m.SessionsOpened,
			m.SessionsValidated,
			m.CurrentEpoch,
			m.FlowDenials,
			m.TransfersSent,
			m.TransfersReceived,
		)
	}
	return m
}
