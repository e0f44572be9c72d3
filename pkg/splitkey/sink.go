package splitkey

import (
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Found is a key worth persisting: a reconstructed key, a key found by a
// search, or a split-key partial found by a search.
type Found struct {
	Address    string
	Kind       AddressKind
	PrivateKey *big.Int
	Compressed bool
	Partial    bool // PrivateKey is a split-key offset, not a spendable key
}

// ResultSink persists found keys. Implementations must be safe for
// concurrent use.
type ResultSink interface {
	Write(f *Found) error
}

// TextSink writes the plain-text result format:
//
//	Pub Addr: <address>
//	Priv (WIF): <kind tag>:<wif>
//	Priv (HEX): 0x<hex>
//
// Partial keys are written in the partial key file format instead, so the
// output of a split-key search can be fed to reconstruction.
type TextSink struct {
	mu    sync.Mutex
	w     io.Writer
	codec AddressCodec
}

// NewTextSink returns a text sink writing to w.
func NewTextSink(w io.Writer, codec AddressCodec) *TextSink {
	return &TextSink{w: w, codec: codec}
}

// Write implements ResultSink.
func (s *TextSink) Write(f *Found) error {
	wif, err := s.codec.EncodePrivateKey(f.PrivateKey, f.Compressed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Partial {
		_, err = fmt.Fprintf(s.w, "%s%s\n%s%s\n", AddressMarker, f.Address, PartialMarker, wif)
		return err
	}
	_, err = fmt.Fprintf(s.w, "\nPub Addr: %s\nPriv (WIF): %s:%s\nPriv (HEX): 0x%s\n",
		f.Address, f.Kind.Tag(), wif, FormatHex(f.PrivateKey))
	return err
}

// jsonFound is the JSON-lines form of Found.
type jsonFound struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	WIF     string `json:"wif"`
	Hex     string `json:"hex"`
	Partial bool   `json:"partial,omitempty"`
}

// JSONSink writes one JSON object per found key.
type JSONSink struct {
	mu    sync.Mutex
	enc   *jsoniter.Encoder
	codec AddressCodec
}

// NewJSONSink returns a JSON-lines sink writing to w.
func NewJSONSink(w io.Writer, codec AddressCodec) *JSONSink {
	return &JSONSink{
		enc:   jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w),
		codec: codec,
	}
}

// Write implements ResultSink.
func (s *JSONSink) Write(f *Found) error {
	wif, err := s.codec.EncodePrivateKey(f.PrivateKey, f.Compressed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonFound{
		Address: f.Address,
		Kind:    f.Kind.Tag(),
		WIF:     wif,
		Hex:     "0x" + FormatHex(f.PrivateKey),
		Partial: f.Partial,
	})
}

// OpenOutput opens path for appending. An empty path selects stdout. When the
// file cannot be opened a warning is logged and stdout is used instead.
func OpenOutput(path string, logger *log.Logger) io.WriteCloser {
	if path == "" {
		return nopCloser{os.Stdout}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		if logger != nil {
			logger.Printf("Cannot open %s for writing: %v", path, err)
		}
		return nopCloser{os.Stdout}
	}
	return f
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
