package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"lendex/crypto"
)

// ErrInvalidRecord is returned when a price-feed blob cannot be decoded or
// carries no current answer.
var ErrInvalidRecord = errors.New("oracle: invalid aggregator record")

const (
	// maxDecodePrefix bounds how much of an aggregator blob is parsed so a
	// hostile record cannot impose unbounded decode cost.
	maxDecodePrefix = 4096
	// submissionRing is the fixed number of submission slots in a record.
	submissionRing = 8
	// maxConfigOracles caps the contributing-oracle list; anything larger
	// cannot be a well-formed record within the decode prefix.
	maxConfigOracles = 64

	valueWidth = 16
)

// Record is a raw price-feed account as held in state: the identity of the
// program that issued it plus its undecoded payload.
type Record struct {
	Owner crypto.Address
	Data  []byte
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := &Record{Owner: r.Owner}
	clone.Data = append([]byte(nil), r.Data...)
	return clone
}

// Submission is one (timestamp, value) report inside the ring.
type Submission struct {
	Timestamp int64
	Value     *big.Int
}

// Config is the aggregator's static configuration block.
type Config struct {
	Oracles            []crypto.Address
	MinAnswerThreshold uint8
	StalenessThreshold uint8
	Decimals           uint8
}

// Aggregator is the decoded form of a price-feed record. Only Config.Decimals
// and Answer are consumed by the lending core; the submission ring and the
// thresholds are decoded but not otherwise validated here.
type Aggregator struct {
	Initialized bool
	Version     uint32
	Config      Config
	UpdatedAt   int64
	Owner       crypto.Address
	Submissions [submissionRing]Submission
	Answer      *big.Int
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrInvalidRecord, r.off)
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) address() (crypto.Address, error) {
	b, err := r.take(crypto.AddressLength)
	if err != nil {
		return crypto.Address{}, err
	}
	return crypto.NewAddress(crypto.AccountPrefix, append([]byte(nil), b...)), nil
}

// value reads a little-endian unsigned 128-bit quantity.
func (r *reader) value() (*big.Int, error) {
	b, err := r.take(valueWidth)
	if err != nil {
		return nil, err
	}
	be := make([]byte, valueWidth)
	for i := range b {
		be[valueWidth-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be), nil
}

// Decode parses an aggregator record from a byte blob. At most the first
// 4096 bytes are consulted. The layout is fixed: an initialized flag, a
// version, the config block, the update timestamp, the owner identity, a ring
// of 8 submissions and an optional aggregated answer.
func Decode(data []byte) (*Aggregator, error) {
	if len(data) > maxDecodePrefix {
		data = data[:maxDecodePrefix]
	}
	r := &reader{data: data}

	agg := &Aggregator{}
	flag, err := r.byte()
	if err != nil {
		return nil, err
	}
	agg.Initialized = flag != 0
	if agg.Version, err = r.uint32(); err != nil {
		return nil, err
	}

	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count > maxConfigOracles {
		return nil, fmt.Errorf("%w: oracle list length %d", ErrInvalidRecord, count)
	}
	agg.Config.Oracles = make([]crypto.Address, 0, count)
	for i := uint32(0); i < count; i++ {
		addr, err := r.address()
		if err != nil {
			return nil, err
		}
		agg.Config.Oracles = append(agg.Config.Oracles, addr)
	}
	if agg.Config.MinAnswerThreshold, err = r.byte(); err != nil {
		return nil, err
	}
	if agg.Config.StalenessThreshold, err = r.byte(); err != nil {
		return nil, err
	}
	if agg.Config.Decimals, err = r.byte(); err != nil {
		return nil, err
	}

	if agg.UpdatedAt, err = r.int64(); err != nil {
		return nil, err
	}
	if agg.Owner, err = r.address(); err != nil {
		return nil, err
	}
	for i := 0; i < submissionRing; i++ {
		if agg.Submissions[i].Timestamp, err = r.int64(); err != nil {
			return nil, err
		}
		if agg.Submissions[i].Value, err = r.value(); err != nil {
			return nil, err
		}
	}

	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		agg.Answer = nil
	case 1:
		if agg.Answer, err = r.value(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: answer tag %d", ErrInvalidRecord, tag)
	}
	return agg, nil
}

// CurrentAnswer returns the aggregated price and its decimal scale. A record
// without a current answer is an oracle-trust failure.
func (a *Aggregator) CurrentAnswer() (*big.Int, uint8, error) {
	if a == nil || a.Answer == nil {
		return nil, 0, fmt.Errorf("%w: no aggregated answer", ErrInvalidRecord)
	}
	return new(big.Int).Set(a.Answer), a.Config.Decimals, nil
}
