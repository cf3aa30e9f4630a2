package tx

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Two inputs, two threshold outputs, one reference and extra "safe transfer".
const (
	goldenUnsigned = "77770005343fd741dd86c7546a7bf5c8a135f38e12a45268ed483c03f87230d145250989000223040fe83ba644c994d58b894e73aad00b25cb765a9e0964a4020641860b460800000000000000003f6ae4439583f59ec0dc28f073233655471fcf71139a6a402b3087436f28634e00030000000000000002000000044a817c8000019b43215c0492ae13c991a385b909cdead3559d07617ed4ef28c06224cf1c85028fbadcb9bfc1190e3ebde2338ab88c912d533dad79340d42be717d703faac12f0003fffe01000000000001010002ce89a0537197768e4dc35779eb90d856b091d596bc4361107a17cced333ef79dc7a9585ac7cd2bdec8a1c7a14d189547aaf4eac6a98858c00be57c0107b2f88404c568d5beed7e8280af97fa74c7ff22d6e94329d82a5943afcd41b9bf1bfe520003fffe0200000001f37bd09324192d20ce9be30fa4429b61b838778df87a183f3f1252ed2796b58a0000000d73616665207472616e736665720000"
	goldenPayloadHash = "01700a685a101398c774cf731dc1d1c94b9af7093e487c6e1701ca7f05bd18b6"

	goldenSignedSuffix = "000200010000" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" +
		"00020000" + "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc" +
		"0001" + "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	goldenSignedHash = "dbeca887070e84e0a4cc96283185ae7f967839a9519637d29752189a714e007e"

	// Deposit, mint and genesis inputs, one withdrawal output, aggregated
	// signature with signers 0, 2 and 9 in bitmap form.
	goldenSpecial = "77770005343fd741dd86c7546a7bf5c8a135f38e12a45268ed483c03f87230d1452509890003000000000000000000000000000000000000000000000000000000000000000000000000777762d86e6d34a8178193c298f5bb74ccabb7b10b5e8d66a31fb598749dbe5e8792002a307864616331376639353864326565353233613232303632303639393435393763313364383331656337000530786162630000000000000007000502540be4000000000000000000000000000000000000000000000000000000000000000000000000000000000077770009554e4956455253414c000000000000002a00043b9aca0000000000000000000000000000000000000000000000000000000000000000000000000767656e6573697300000000000100a100050253734d80000000000000000000000000000000000000000000000000000000000000000000000000777762d86e6d34a8178193c298f5bb74ccabb7b10b5e8d66a31fb598749dbe5e8792002a30786461633137663935386432656535323361323230363230363939343539376331336438333165633700063078313233340000000000000000ffffff015a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a0000020502"

	usdtAssetKey = "0xdac17f958d2ee523a2206206994597c13d831ec7"
)

func sha3Hash(s string) types.Hash {
	return crypto.NewHash([]byte(s))
}

func sha3Key(s string) crypto.Key {
	return crypto.Key(crypto.NewHash([]byte(s)))
}

func mustAmount(t *testing.T, s string) types.Integer {
	t.Helper()
	x, err := types.NewIntegerFromString(s)
	require.NoError(t, err)
	return x
}

func goldenTransaction(t *testing.T) *Transaction {
	t.Helper()
	return NewBuilder(sha3Hash("asset")).
		AddInput(sha3Hash("input-0"), 0).
		AddInput(sha3Hash("input-1"), 3).
		AddScriptOutput(mustAmount(t, "12.5"), []crypto.Key{sha3Key("key-0-0")}, sha3Key("mask-0"), 1).
		AddScriptOutput(mustAmount(t, "0.00000001"), []crypto.Key{sha3Key("key-1-0"), sha3Key("key-1-1")}, sha3Key("mask-1"), 2).
		AddReference(sha3Hash("ref-0")).
		SetExtra([]byte("safe transfer")).
		Build()
}

func filledSignature(b byte) *crypto.Signature {
	var s crypto.Signature
	for i := range s {
		s[i] = b
	}
	return &s
}

func TestTransaction_GoldenEncode(t *testing.T) {
	tx := goldenTransaction(t)

	h, err := tx.Hex()
	require.NoError(t, err)
	assert.Equal(t, goldenUnsigned, h)

	ph, err := tx.PayloadHash()
	require.NoError(t, err)
	assert.Equal(t, goldenPayloadHash, ph.String())

	full, err := tx.Hash()
	require.NoError(t, err)
	assert.Equal(t, ph, full, "unsigned hash equals payload hash")
}

func TestTransaction_GoldenDecode(t *testing.T) {
	tx, err := UnmarshalHex(goldenUnsigned)
	require.NoError(t, err)

	assert.Equal(t, uint8(TxVersionHashSignature), tx.Version)
	assert.Equal(t, sha3Hash("asset"), tx.Asset)

	require.Len(t, tx.Inputs, 2)
	assert.Equal(t, sha3Hash("input-0"), tx.Inputs[0].Hash)
	assert.Equal(t, uint16(0), tx.Inputs[0].Index)
	assert.Equal(t, sha3Hash("input-1"), tx.Inputs[1].Hash)
	assert.Equal(t, uint16(3), tx.Inputs[1].Index)
	assert.Nil(t, tx.Inputs[0].Genesis)
	assert.Nil(t, tx.Inputs[0].Deposit)
	assert.Nil(t, tx.Inputs[0].Mint)

	require.Len(t, tx.Outputs, 2)
	o := tx.Outputs[0]
	assert.Equal(t, uint8(OutputTypeScript), o.Type)
	assert.Equal(t, "12.50000000", o.Amount.String())
	assert.Equal(t, []crypto.Key{sha3Key("key-0-0")}, o.Keys)
	assert.Equal(t, sha3Key("mask-0"), o.Mask)
	assert.Equal(t, types.NewThresholdScript(1), o.Script)
	assert.Nil(t, o.Withdrawal)

	o = tx.Outputs[1]
	assert.Equal(t, "0.00000001", o.Amount.String())
	assert.Equal(t, []crypto.Key{sha3Key("key-1-0"), sha3Key("key-1-1")}, o.Keys)
	assert.Equal(t, sha3Key("mask-1"), o.Mask)
	assert.Equal(t, types.NewThresholdScript(2), o.Script)

	assert.Equal(t, []types.Hash{sha3Hash("ref-0")}, tx.References)
	assert.Equal(t, []byte("safe transfer"), tx.Extra)
	assert.Empty(t, tx.SignaturesMap)
	assert.Nil(t, tx.AggregatedSignature)

	again, err := tx.Hex()
	require.NoError(t, err)
	assert.Equal(t, goldenUnsigned, again)
}

func TestTransaction_SignaturesMap(t *testing.T) {
	tx := goldenTransaction(t)
	tx.SignaturesMap = []map[uint16]*crypto.Signature{
		{0: filledSignature(0xaa)},
		{1: filledSignature(0xbb), 0: filledSignature(0xcc)},
	}
	signedHex := goldenUnsigned[:len(goldenUnsigned)-4] + goldenSignedSuffix

	h, err := tx.Hex()
	require.NoError(t, err)
	assert.Equal(t, signedHex, h)

	full, err := tx.Hash()
	require.NoError(t, err)
	assert.Equal(t, goldenSignedHash, full.String())

	ph, err := tx.PayloadHash()
	require.NoError(t, err)
	assert.Equal(t, goldenPayloadHash, ph.String(), "signatures do not change the payload hash")

	decoded, err := UnmarshalHex(signedHex)
	require.NoError(t, err)
	require.Len(t, decoded.SignaturesMap, 2)
	assert.Equal(t, filledSignature(0xaa), decoded.SignaturesMap[0][0])
	assert.Equal(t, filledSignature(0xcc), decoded.SignaturesMap[1][0])
	assert.Equal(t, filledSignature(0xbb), decoded.SignaturesMap[1][1])
}

func TestTransaction_GoldenSpecialRecords(t *testing.T) {
	tx, err := UnmarshalHex(goldenSpecial)
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 3)
	d := tx.Inputs[0].Deposit
	require.NotNil(t, d)
	assert.Equal(t, sha3Hash("chain"), d.Chain)
	assert.Equal(t, usdtAssetKey, d.AssetKey)
	assert.Equal(t, "0xabc", d.TransactionHash)
	assert.Equal(t, uint64(7), d.OutputIndex)
	assert.Equal(t, "100.00000000", d.Amount.String())

	m := tx.Inputs[1].Mint
	require.NotNil(t, m)
	assert.Equal(t, "UNIVERSAL", m.Group)
	assert.Equal(t, uint64(42), m.Batch)
	assert.Equal(t, "10.00000000", m.Amount.String())

	assert.Equal(t, []byte("genesis"), tx.Inputs[2].Genesis)

	require.Len(t, tx.Outputs, 1)
	o := tx.Outputs[0]
	assert.Equal(t, uint8(OutputTypeWithdrawalSubmit), o.Type)
	assert.Equal(t, "99.90000000", o.Amount.String())
	assert.Empty(t, o.Keys)
	require.NotNil(t, o.Withdrawal)
	assert.Equal(t, WithdrawalData{Chain: sha3Hash("chain"), AssetKey: usdtAssetKey, Address: "0x1234"}, *o.Withdrawal)

	require.NotNil(t, tx.AggregatedSignature)
	assert.Equal(t, []int{0, 2, 9}, tx.AggregatedSignature.Signers)
	assert.Equal(t, *filledSignature(0x5a), tx.AggregatedSignature.Signature)

	again, err := tx.Hex()
	require.NoError(t, err)
	assert.Equal(t, goldenSpecial, again)
}

func TestTransaction_AggregatedSparse(t *testing.T) {
	tx := goldenTransaction(t)
	tx.AggregatedSignature = &AggregatedSignature{
		Signature: *filledSignature(0x11),
		Signers:   []int{1, 1200},
	}

	b, err := tx.Marshal()
	require.NoError(t, err)

	// count 0xFFFF, prefix, signature, sparse mode, 2 signers.
	tail := b[len(b)-(2+2+64+1+2+4):]
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0x01}, tail[:4])
	assert.Equal(t, byte(AggregatedSignatureSparseMask), tail[68])
	assert.Equal(t, []byte{0x00, 0x02, 0x00, 0x01, 0x04, 0xb0}, tail[69:])

	decoded, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1200}, decoded.AggregatedSignature.Signers)
}

func TestUseSparseSigners(t *testing.T) {
	tests := []struct {
		signers []int
		want    bool
	}{
		{[]int{0}, false},
		{[]int{0, 1015}, false},
		{[]int{1023}, false},
		{[]int{1024}, true},
		{[]int{3, 5000}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, useSparseSigners(tt.signers), "%v", tt.signers)
	}
}

func TestTransaction_AggregatedBitmapRoundtrip(t *testing.T) {
	tx := goldenTransaction(t)
	signers := []int{0, 7, 8, 63, 1015}
	tx.AggregatedSignature = &AggregatedSignature{Signature: *filledSignature(0x22), Signers: signers}

	b, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, signers, decoded.AggregatedSignature.Signers)

	again, err := decoded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestUnmarshal_Malformed(t *testing.T) {
	valid, err := hex.DecodeString(goldenSpecial)
	require.NoError(t, err)

	corrupt := func(off int, b byte) []byte {
		c := append([]byte(nil), valid...)
		c[off] = b
		return c
	}
	// The aggregated section is the last 73 bytes.
	aggStart := len(valid) - 73

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", corrupt(0, 0x78)},
		{"bad version prefix", corrupt(2, 0x01)},
		{"zero version", corrupt(3, 0x00)},
		{"truncated", valid[:len(valid)-1]},
		{"trailing byte", append(append([]byte(nil), valid...), 0x00)},
		{"bad record marker", corrupt(4+32+2+32+2+2, 0x12)},
		{"bad aggregated prefix", corrupt(aggStart+3, 0x02)},
		{"bad aggregated mode", corrupt(aggStart+68, 0x07)},
		{"trailing zero bitmap byte", corrupt(len(valid)-1, 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransactionFormat)
			assert.ErrorIs(t, err, types.ErrFormat)
		})
	}

	_, err = UnmarshalHex("zz")
	assert.ErrorIs(t, err, ErrTransactionFormat)
}

func TestUnmarshal_SparseNotAscending(t *testing.T) {
	tx := goldenTransaction(t)
	tx.AggregatedSignature = &AggregatedSignature{Signature: *filledSignature(0x11), Signers: []int{1200, 1300}}
	b, err := tx.Marshal()
	require.NoError(t, err)

	// Swap the two sparse indices.
	n := len(b)
	copy(b[n-4:], []byte{0x05, 0x14, 0x04, 0xb0})
	_, err = Unmarshal(b)
	assert.ErrorIs(t, err, ErrTransactionFormat)
}

func TestTransaction_Clone(t *testing.T) {
	tx, err := UnmarshalHex(goldenSpecial)
	require.NoError(t, err)
	c := tx.Clone()

	c.Inputs[0].Deposit.Amount = types.NewInteger(1)
	c.Outputs[0].Withdrawal.Address = "elsewhere"
	c.AggregatedSignature.Signers[0] = 1
	c.Inputs[2].Genesis[0] = 'G'

	again, err := tx.Hex()
	require.NoError(t, err)
	assert.Equal(t, goldenSpecial, again)
}

func TestTransaction_JSON(t *testing.T) {
	tx := goldenTransaction(t)
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.Contains(s, `"payload_hash":"`+goldenPayloadHash+`"`), s)
	assert.True(t, strings.Contains(s, `"extra":"`+hex.EncodeToString([]byte("safe transfer"))+`"`), s)
	assert.True(t, strings.Contains(s, `"amount":"12.50000000"`), s)
}
