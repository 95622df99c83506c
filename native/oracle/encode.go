package oracle

import (
	"encoding/binary"
	"math/big"

	"lendex/crypto"
)

// Encode renders an aggregator into the wire layout understood by Decode.
// Feed issuers and test fixtures use it to publish records.
func Encode(a *Aggregator) []byte {
	out := make([]byte, 0, 512)
	if a.Initialized {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.LittleEndian.AppendUint32(out, a.Version)

	out = binary.LittleEndian.AppendUint32(out, uint32(len(a.Config.Oracles)))
	for _, addr := range a.Config.Oracles {
		out = appendAddress(out, addr)
	}
	out = append(out, a.Config.MinAnswerThreshold, a.Config.StalenessThreshold, a.Config.Decimals)

	out = binary.LittleEndian.AppendUint64(out, uint64(a.UpdatedAt))
	out = appendAddress(out, a.Owner)
	for _, sub := range a.Submissions {
		out = binary.LittleEndian.AppendUint64(out, uint64(sub.Timestamp))
		out = appendValue(out, sub.Value)
	}

	if a.Answer == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = appendValue(out, a.Answer)
	}
	return out
}

func appendAddress(out []byte, addr crypto.Address) []byte {
	b := addr.Bytes()
	if len(b) != crypto.AddressLength {
		b = make([]byte, crypto.AddressLength)
	}
	return append(out, b...)
}

func appendValue(out []byte, v *big.Int) []byte {
	buf := make([]byte, valueWidth)
	if v != nil {
		be := v.Bytes()
		if len(be) > valueWidth {
			be = be[len(be)-valueWidth:]
		}
		for i, b := range be {
			buf[len(be)-1-i] = b
		}
	}
	return append(out, buf...)
}
