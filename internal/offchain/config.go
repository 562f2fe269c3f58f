// Package offchain describes the off-chain protocol parameters that an
// aggregator stores opaquely, and splits them into proposal-sized writes.
package offchain

import (
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
)

// SafeInterval is the lower bound for DeltaProgress and DeltaResend.
const SafeInterval = 200 * time.Millisecond

// MaxScheduleLength bounds len(S).
const MaxScheduleLength = 1000

var (
	ErrNegativeDuration  = errors.New("duration must be non-negative")
	ErrBelowSafeInterval = errors.New("interval below the resource exhaustion safe interval")
	ErrRoundTooLong      = errors.New("deltaRound must be less than deltaProgress")
	ErrGenerationTooLong = errors.New("sum of max query, observation and report durations must be less than deltaProgress")
	ErrBadRMax           = errors.New("rMax must be greater than zero and less than 255")
	ErrBadSchedule       = errors.New("invalid transmission schedule")
	ErrKeyCount          = errors.New("per-oracle key lists differ in length")
)

// ReportingPluginConfig parameterises the median reporting plugin.
type ReportingPluginConfig struct {
	AlphaReportInfinite bool          `codec:"alpha_report_infinite" json:"alphaReportInfinite"`
	AlphaReportPpb      uint64        `codec:"alpha_report_ppb" json:"alphaReportPpb"`
	AlphaAcceptInfinite bool          `codec:"alpha_accept_infinite" json:"alphaAcceptInfinite"`
	AlphaAcceptPpb      uint64        `codec:"alpha_accept_ppb" json:"alphaAcceptPpb"`
	DeltaC              time.Duration `codec:"delta_c" json:"deltaC"`
}

// Config is the off-chain configuration handed to oracle nodes. The
// per-oracle lists are ordered like the on-chain oracle set.
type Config struct {
	DeltaProgress time.Duration `codec:"delta_progress" json:"deltaProgress"`
	DeltaResend   time.Duration `codec:"delta_resend" json:"deltaResend"`
	DeltaRound    time.Duration `codec:"delta_round" json:"deltaRound"`
	DeltaGrace    time.Duration `codec:"delta_grace" json:"deltaGrace"`
	DeltaStage    time.Duration `codec:"delta_stage" json:"deltaStage"`
	RMax          uint32        `codec:"r_max" json:"rMax"`
	S             []uint32      `codec:"s" json:"s"`

	OffchainPublicKeys [][]byte `codec:"offchain_public_keys" json:"offchainPublicKeys"`
	PeerIDs            []string `codec:"peer_ids" json:"peerIds"`
	ConfigPublicKeys   [][]byte `codec:"config_public_keys" json:"configPublicKeys"`

	ReportingPluginConfig ReportingPluginConfig `codec:"reporting_plugin_config" json:"reportingPluginConfig"`

	MaxDurationQuery                        time.Duration `codec:"max_duration_query" json:"maxDurationQuery"`
	MaxDurationObservation                  time.Duration `codec:"max_duration_observation" json:"maxDurationObservation"`
	MaxDurationReport                       time.Duration `codec:"max_duration_report" json:"maxDurationReport"`
	MaxDurationShouldAcceptFinalizedReport  time.Duration `codec:"max_duration_should_accept_finalized_report" json:"maxDurationShouldAcceptFinalizedReport"`
	MaxDurationShouldTransmitAcceptedReport time.Duration `codec:"max_duration_should_transmit_accepted_report" json:"maxDurationShouldTransmitAcceptedReport"`
}

// Validate applies the sanity rules oracle operators expect before a config
// is proposed.
func (c *Config) Validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"deltaProgress", c.DeltaProgress},
		{"deltaResend", c.DeltaResend},
		{"deltaRound", c.DeltaRound},
		{"deltaGrace", c.DeltaGrace},
		{"deltaStage", c.DeltaStage},
		{"maxDurationQuery", c.MaxDurationQuery},
		{"maxDurationObservation", c.MaxDurationObservation},
		{"maxDurationReport", c.MaxDurationReport},
		{"maxDurationShouldAcceptFinalizedReport", c.MaxDurationShouldAcceptFinalizedReport},
		{"maxDurationShouldTransmitAcceptedReport", c.MaxDurationShouldTransmitAcceptedReport},
	}
	for _, d := range durations {
		if d.d < 0 {
			return fmt.Errorf("%w: %s is %s", ErrNegativeDuration, d.name, d.d)
		}
	}

	if c.DeltaProgress < SafeInterval {
		return fmt.Errorf("%w: deltaProgress %s < %s", ErrBelowSafeInterval, c.DeltaProgress, SafeInterval)
	}
	if c.DeltaResend < SafeInterval {
		return fmt.Errorf("%w: deltaResend %s < %s", ErrBelowSafeInterval, c.DeltaResend, SafeInterval)
	}
	if c.DeltaRound >= c.DeltaProgress {
		return fmt.Errorf("%w: %s >= %s", ErrRoundTooLong, c.DeltaRound, c.DeltaProgress)
	}
	generation := c.MaxDurationQuery + c.MaxDurationObservation + c.MaxDurationReport
	if generation >= c.DeltaProgress {
		return fmt.Errorf("%w: %s >= %s", ErrGenerationTooLong, generation, c.DeltaProgress)
	}
	if c.RMax == 0 || c.RMax >= 255 {
		return fmt.Errorf("%w: %d", ErrBadRMax, c.RMax)
	}

	if len(c.S) >= MaxScheduleLength {
		return fmt.Errorf("%w: length %d must be less than %d", ErrBadSchedule, len(c.S), MaxScheduleLength)
	}
	for i, s := range c.S {
		if s > ocr2.MaxOracles {
			return fmt.Errorf("%w: S[%d] (%d) exceeds %d oracles", ErrBadSchedule, i, s, ocr2.MaxOracles)
		}
	}

	n := len(c.OffchainPublicKeys)
	if len(c.PeerIDs) != n || len(c.ConfigPublicKeys) != n {
		return fmt.Errorf("%w: %d offchain keys, %d peer ids, %d config keys",
			ErrKeyCount, n, len(c.PeerIDs), len(c.ConfigPublicKeys))
	}
	return nil
}
