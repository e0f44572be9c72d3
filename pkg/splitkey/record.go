package splitkey

import (
	"fmt"
	"math/big"
	"strings"
)

// Line markers of the partial key file.
const (
	AddressMarker = "PubAddress: "
	PartialMarker = "PartialPriv: "
)

// PartialKeyRecord is one address / partial key pair from a partial key file.
type PartialKeyRecord struct {
	Line          int // index of the PubAddress line among non-empty lines
	TargetAddress string
	Kind          AddressKind
	Compressed    bool     // compression flag of the decoded partial key
	PartialScalar *big.Int // split-key offset added to every transform
	PartialText   string
}

// ParseRecords pairs consecutive lines into records. A missing marker aborts
// the whole batch with a *RecordFormatError. Records with an unsupported
// address kind are skipped and reported, not constructed. A partial key that
// does not decode is fatal.
func ParseRecords(lines []string, codec AddressCodec) ([]*PartialKeyRecord, []*SkipWarning, error) {
	records := make([]*PartialKeyRecord, 0, len(lines)/2)
	var skipped []*SkipWarning

	for i := 0; i < len(lines); i += 2 {
		if !strings.HasPrefix(lines[i], AddressMarker) {
			return nil, nil, &RecordFormatError{Line: i, Expected: AddressMarker}
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], PartialMarker) {
			return nil, nil, &RecordFormatError{Line: i + 1, Expected: PartialMarker}
		}
		addr := strings.TrimPrefix(lines[i], AddressMarker)
		partialText := strings.TrimPrefix(lines[i+1], PartialMarker)

		kind, ok := KindOf(addr)
		if !ok {
			skipped = append(skipped, &SkipWarning{
				Line:    i,
				Reason:  SkipUnsupportedKind,
				Address: addr,
				Partial: partialText,
			})
			continue
		}

		partial, compressed, err := codec.DecodePrivateKey(partialText)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid partial key at line %d: %w", i+1, err)
		}

		records = append(records, &PartialKeyRecord{
			Line:          i,
			TargetAddress: addr,
			Kind:          kind,
			Compressed:    compressed,
			PartialScalar: partial,
			PartialText:   partialText,
		})
	}

	return records, skipped, nil
}
