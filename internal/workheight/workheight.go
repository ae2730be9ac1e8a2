// Package workheight extracts the block height embedded in a
// coinbase-1 script, for use as a comparator input on WORKINFO rows
// (spec.md §4.8). Two entry points exist: DecodeBytes, which expects an
// already-decoded coinbase script and uses btcd's script-number decoder
// (the structured path spec.md §9 recommends), and DecodeHex, the
// legacy textual path kept for compatibility with callers that still
// hand over the raw coinbase-1 hex string.
package workheight

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/txscript"
)

// coinbase1HeightOffset is the character offset into the textual
// coinbase-1 hex string where the BIP34 height push begins: 84 hex
// characters are the first 42 bytes of the serialised coinbase
// transaction (version 4, input count 1, previous outpoint 32+4, script
// length 1), so the push-length byte of the height is the first byte of
// the coinbase script (spec.md §9 calls this out as a magic offset
// worth documenting).
const coinbase1HeightOffset = 84

// maxHeightPushBytes bounds the little-endian height push length BIP34
// allows; anything outside [1,4] is malformed input, not a programmer
// error, so decoding yields 0 rather than aborting.
const maxHeightPushBytes = 4

// DecodeHex extracts the BIP34 block height from a coinbase-1 script
// given as a hex string, reading the push-length byte at offset 84 and
// the little-endian height bytes that follow (spec.md §4.8, concrete
// scenario 3). Malformed input (out-of-range push length, or a string
// too short to contain it) yields 0.
func DecodeHex(coinbase1hex string) int64 {
	if len(coinbase1hex) < coinbase1HeightOffset+2 {
		return 0
	}
	sizByte, err := hex.DecodeString(coinbase1hex[coinbase1HeightOffset : coinbase1HeightOffset+2])
	if err != nil {
		return 0
	}
	siz := int(sizByte[0])
	if siz < 1 || siz > maxHeightPushBytes {
		return 0
	}

	nibbles := siz * 2
	start := coinbase1HeightOffset + 2
	if start+nibbles > len(coinbase1hex) {
		return 0
	}
	raw, err := hex.DecodeString(coinbase1hex[start : start+nibbles])
	if err != nil {
		return 0
	}
	return littleEndianToInt64(raw)
}

func littleEndianToInt64(b []byte) int64 {
	var v int64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int64(b[i])
	}
	return v
}

// DecodeBytes extracts the BIP34 height from an already-decoded
// coinbase script using btcd's minimally-encoded script number decoder,
// the structured equivalent of DecodeHex's byte-offset reading. Callers
// that already have the coinbase script as bytes (rather than the
// legacy hex string) should prefer this path.
func DecodeBytes(coinbaseScript []byte) int64 {
	if len(coinbaseScript) < 2 {
		return 0
	}
	siz := int(coinbaseScript[0])
	if siz < 1 || siz > maxHeightPushBytes || len(coinbaseScript) < 1+siz {
		return 0
	}
	num, err := txscript.MakeScriptNum(coinbaseScript[1:1+siz], false, siz)
	if err != nil {
		return 0
	}
	return int64(num)
}
