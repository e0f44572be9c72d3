// Package splitkey reconstructs secp256k1 private keys found by a split-key
// vanity search.
//
// In a split-key search the key owner publishes a public key K = d*G and a
// searcher looks for an offset p such that an address derived from K + p*G
// matches a wanted prefix. Because the searcher also tests the curve
// endomorphism (multiplication by a cube root of unity) and point negation,
// the address it reports belongs to T(d) + p for one of six transforms T:
//
//	T0  d
//	T1  d*l1 mod n
//	T2  d*l2 mod n
//	T3  n - d
//	T4  n - d*l1 mod n
//	T5  n - d*l2 mod n
//
// The Engine tries them in that order and keeps the first whose address
// matches.
//
// # Quick Start
//
//	client := splitkey.NewClient()
//
//	// Each record is a pair of lines:
//	//   PubAddress: 1Abc...
//	//   PartialPriv: L1x...
//	report, err := client.Reconstruct(ctx, "KxF...", "partial_keys.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("reconstructed %d keys\n", report.Matched())
//
// # Customization
//
// Results go to stdout in text form by default:
//
//	out := splitkey.OpenOutput("found.txt", logger)
//	defer out.Close()
//
//	client := splitkey.NewClient().
//	    WithSink(splitkey.NewJSONSink(out, splitkey.NewBitcoinCodec(nil))).
//	    WithWorkers(4)
//
// # Key pairs
//
// DeriveKeyPair derives the key the owner hands to a searcher from a
// passphrase (PBKDF2-HMAC-SHA512, 2048 rounds, then SHA-256):
//
//	kp, err := client.DeriveKeyPair("A Strong Password", false, splitkey.Compressed)
package splitkey
