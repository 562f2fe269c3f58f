package ocr2

import (
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

// Aggregator limits
const (
	// MaxOracles is the capacity of an oracle set
	MaxOracles = 19

	// MaxOffchainConfigLen is the capacity of the off-chain config blob
	MaxOffchainConfigLen = 4096

	// ReportContextLen is digest(32) + padding(27) + epoch(4) + round(1) + extra hash(32)
	ReportContextLen = 96

	// RawReportLen is timestamp(4) + observer count(1) + observers(32) + median(16) + juels(8)
	RawReportLen = 61

	// MaxObservers is the size of the observers field of a report
	MaxObservers = 32

	// SignatureSize is the size of one report signature
	SignatureSize = secp256k1.SignatureSize

	// feeScale converts lamports times juels-per-feecoin into juels
	feeScale = 1_000_000_000
)

// Account layout sizes
const (
	oracleSize         = secp256k1.AddressSize + 3*types.AddressLength + 4 + 8
	offchainConfigSize = 8 + 4 + MaxOffchainConfigLen
	stateHeaderSize    = 8 + 3 + 3*types.AddressLength + 32 + 2 + 4 + 1 + 4 + types.AddressLength + 4 +
		2*types.Int128Size + 8 + 4*types.AddressLength

	// StateSize is the account size of an aggregator state
	StateSize = stateHeaderSize + MaxOracles*oracleSize + offchainConfigSize

	proposedOracleSize = secp256k1.AddressSize + 2*types.AddressLength

	// ProposalSize is the account size of a configuration proposal
	ProposalSize = 8 + 1 + types.AddressLength + 1 + 1 + types.AddressLength + 1 +
		MaxOracles*proposedOracleSize + offchainConfigSize
)

// Layout versions
const (
	stateVersion    = 1
	proposalVersion = 1
)

// Proposal states
const (
	ProposalProposed  uint8 = 0
	ProposalFinalized uint8 = 1
)

// Event names
const (
	EventNewTransmission = "NewTransmission"
	EventSetConfig       = "SetConfig"
	EventRoundRequested  = "RoundRequested"
)

// Instruction kinds
const (
	KindInitialize                   = "initialize"
	KindTransferOwnership            = "transfer_ownership"
	KindAcceptOwnership              = "accept_ownership"
	KindCreateProposal               = "create_proposal"
	KindProposeConfig                = "propose_config"
	KindWriteOffchainConfig          = "write_offchain_config"
	KindProposePayees                = "propose_payees"
	KindFinalizeProposal             = "finalize_proposal"
	KindAcceptProposal               = "accept_proposal"
	KindCloseProposal                = "close_proposal"
	KindTransmit                     = "transmit"
	KindRequestNewRound              = "request_new_round"
	KindSetRequesterAccessController = "set_requester_access_controller"
	KindSetBillingAccessController   = "set_billing_access_controller"
	KindSetBilling                   = "set_billing"
	KindWithdrawFunds                = "withdraw_funds"
	KindPayOracles                   = "pay_oracles"
	KindTransferPayeeship            = "transfer_payeeship"
	KindAcceptPayeeship              = "accept_payeeship"
	KindClose                        = "close"
)
