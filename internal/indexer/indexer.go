// Package indexer copies accepted transmissions into the round index.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
)

// Indexer records every NewTransmission event of an applied transaction.
type Indexer struct {
	repo   relationaldb.RoundRepository
	logger zerolog.Logger
}

// New creates an indexer writing to repo.
func New(repo relationaldb.RoundRepository) *Indexer {
	return &Indexer{repo: repo, logger: log.Component("indexer")}
}

// Record converts a NewTransmission event into an index row.
func Record(ev *ocr2.NewTransmission, txHash [32]byte) *relationaldb.RoundRecord {
	return &relationaldb.RoundRecord{
		Feed:                  ev.Feed,
		RoundID:               ev.RoundID,
		State:                 ev.State,
		ConfigDigest:          ev.ConfigDigest,
		Epoch:                 ev.Epoch,
		Round:                 ev.Round,
		Answer:                ev.Answer.String(),
		Transmitter:           ev.Transmitter,
		ObservationsTimestamp: ev.ObservationsTimestamp,
		JuelsPerFeecoin:       ev.JuelsPerFeecoin,
		Slot:                  ev.Slot,
		Timestamp:             ev.Timestamp,
		TxHash:                txHash,
	}
}

// Index saves the transmissions of a committed transaction and returns how
// many rounds were written. Results that were not applied successfully are
// ignored. A round that is already indexed is skipped.
func (i *Indexer) Index(ctx context.Context, res tx.ApplyResult) (int, error) {
	if !res.Applied || !res.Result.IsSuccess() {
		return 0, nil
	}

	evs, err := Transmissions(res)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, ev := range evs {
		err := i.repo.SaveRound(ctx, Record(ev, res.TxHash))
		if errors.Is(err, relationaldb.ErrDuplicate) {
			i.logger.Warn().Str("feed", ev.Feed.String()).Uint32("round", ev.RoundID).Msg("round already indexed")
			continue
		}
		if err != nil {
			return n, fmt.Errorf("index round %d of %s: %w", ev.RoundID, ev.Feed, err)
		}
		n++
		i.logger.Debug().Str("feed", ev.Feed.String()).Uint32("round", ev.RoundID).Msg("round indexed")
	}
	return n, nil
}

// Transmissions decodes the NewTransmission events of a result in emission
// order.
func Transmissions(res tx.ApplyResult) ([]*ocr2.NewTransmission, error) {
	var out []*ocr2.NewTransmission
	for _, e := range res.Events {
		if e.Program != keylet.OCR2Program || e.Name != ocr2.EventNewTransmission {
			continue
		}
		ev, err := ocr2.DecodeNewTransmission(e.Data)
		if err != nil {
			return out, fmt.Errorf("decode %s: %w", e.Name, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
