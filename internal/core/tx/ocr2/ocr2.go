// Package ocr2 implements the aggregator program: digest-verified oracle
// set proposals, threshold-signed report transmission into a feed store and
// the per-oracle billing ledger paid out of a token vault.
package ocr2

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
)

func init() {
	tx.Register(keylet.OCR2Program, KindInitialize, func() tx.Handler { return &Initialize{} })
	tx.Register(keylet.OCR2Program, KindTransferOwnership, func() tx.Handler { return &TransferOwnership{} })
	tx.Register(keylet.OCR2Program, KindAcceptOwnership, func() tx.Handler { return &AcceptOwnership{} })
	tx.Register(keylet.OCR2Program, KindCreateProposal, func() tx.Handler { return &CreateProposal{} })
	tx.Register(keylet.OCR2Program, KindProposeConfig, func() tx.Handler { return &ProposeConfig{} })
	tx.Register(keylet.OCR2Program, KindWriteOffchainConfig, func() tx.Handler { return &WriteOffchainConfig{} })
	tx.Register(keylet.OCR2Program, KindProposePayees, func() tx.Handler { return &ProposePayees{} })
	tx.Register(keylet.OCR2Program, KindFinalizeProposal, func() tx.Handler { return &FinalizeProposal{} })
	tx.Register(keylet.OCR2Program, KindAcceptProposal, func() tx.Handler { return &AcceptProposal{} })
	tx.Register(keylet.OCR2Program, KindCloseProposal, func() tx.Handler { return &CloseProposal{} })
	tx.Register(keylet.OCR2Program, KindTransmit, func() tx.Handler { return &Transmit{} })
	tx.Register(keylet.OCR2Program, KindRequestNewRound, func() tx.Handler { return &RequestNewRound{} })
	tx.Register(keylet.OCR2Program, KindSetRequesterAccessController, func() tx.Handler { return &SetRequesterAccessController{} })
	tx.Register(keylet.OCR2Program, KindSetBillingAccessController, func() tx.Handler { return &SetBillingAccessController{} })
	tx.Register(keylet.OCR2Program, KindSetBilling, func() tx.Handler { return &SetBilling{} })
	tx.Register(keylet.OCR2Program, KindWithdrawFunds, func() tx.Handler { return &WithdrawFunds{} })
	tx.Register(keylet.OCR2Program, KindPayOracles, func() tx.Handler { return &PayOracles{} })
	tx.Register(keylet.OCR2Program, KindTransferPayeeship, func() tx.Handler { return &TransferPayeeship{} })
	tx.Register(keylet.OCR2Program, KindAcceptPayeeship, func() tx.Handler { return &AcceptPayeeship{} })
	tx.Register(keylet.OCR2Program, KindClose, func() tx.Handler { return &Close{} })
}
