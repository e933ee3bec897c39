// Package replay implements a Provider that replays recorded fee
// observations from a CSV file, the same bufio/encoding-csv readTxs shape
// simulation.go uses to load historical transactions for backtesting,
// adapted to stream fixed-size batches on each call instead of loading a
// fee estimator's entire UTXO history up front.
package replay

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Provider serves FeeDataPoints from a pre-loaded CSV recording, advancing
// a cursor on each FetchLatestFees call. Columns: fee, timestamp (RFC3339),
// transaction_hash, ledger_sequence.
type Provider struct {
	points    []model.FeeDataPoint
	batchSize int
	cursor    int
}

// New reads every row from path into memory, mirroring readTxs's
// read-until-EOF loop, then returns a Provider that yields batchSize
// points per call.
func New(path string, batchSize int) (*Provider, error) {
	points, err := readPoints(path)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Provider{points: points, batchSize: batchSize}, nil
}

func readPoints(path string) ([]model.FeeDataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening replay file %q", path)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	var points []model.FeeDataPoint
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading replay file %q", path)
		}
		if len(line) < 4 {
			continue
		}

		fee, err := strconv.ParseUint(line[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing fee column %q", line[0])
		}
		ts, err := time.Parse(time.RFC3339, line[1])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing timestamp column %q", line[1])
		}
		ledgerSeq, err := strconv.ParseUint(line[3], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing ledger_sequence column %q", line[3])
		}

		points = append(points, model.FeeDataPoint{
			Fee:             fee,
			Timestamp:       ts,
			TransactionHash: line[2],
			LedgerSequence:  ledgerSeq,
		})
	}

	return points, nil
}

// Name implements engine.Provider.
func (p *Provider) Name() string {
	return "replay"
}

// FetchLatestFees returns the next batch of recorded points, advancing the
// internal cursor. Once exhausted it returns an empty batch rather than an
// error, so a replay run ends by quietly going idle.
func (p *Provider) FetchLatestFees(ctx context.Context) ([]model.FeeDataPoint, error) {
	if p.cursor >= len(p.points) {
		return nil, nil
	}

	end := p.cursor + p.batchSize
	if end > len(p.points) {
		end = len(p.points)
	}

	batch := p.points[p.cursor:end]
	p.cursor = end
	return batch, nil
}

// Remaining reports how many recorded points have not yet been served.
func (p *Provider) Remaining() int {
	return len(p.points) - p.cursor
}
