package sc

import (
	"bytes"
	"crypto/md5"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/sccodec/pkg/sc/stream"
)

func compressToBytes(t *testing.T, plaintext []byte, opts CompressOptions) []byte {
	t.Helper()
	in := stream.NewMemoryStream(plaintext)
	out := stream.NewMemoryStream(nil)
	require.NoError(t, Compress(in, out, opts))
	return out.Bytes()
}

func TestTinyZstdRoundTrip(t *testing.T) {
	plaintext := []byte("hello world")
	out := compressToBytes(t, plaintext, CompressOptions{Signature: SignatureZstd})

	sum := md5.Sum(plaintext)
	want := append([]byte{0x53, 0x43, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x10}, sum[:]...)
	require.Equal(t, want, out[:len(want)])
	require.Equal(t, []byte{0x28, 0xB5, 0x2F, 0xFD}, out[len(want):len(want)+4])

	in := stream.NewMemoryStream(out)
	decodedStream := stream.NewMemoryStream(nil)
	require.NoError(t, Decompress(in, decodedStream, nil))
	require.Equal(t, plaintext, decodedStream.Bytes())
}

func TestLzmaRoundTripLargeRepeated(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x41}, 100000)
	out := compressToBytes(t, plaintext, CompressOptions{Signature: SignatureLzma})

	sum := md5.Sum(plaintext)
	wantPrefix := append([]byte{0x53, 0x43, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x10}, sum[:]...)
	require.Equal(t, wantPrefix, out[:len(wantPrefix)])

	unpackedLenOffset := len(wantPrefix) + 5
	require.Equal(t, []byte{0xA0, 0x86, 0x01, 0x00}, out[unpackedLenOffset:unpackedLenOffset+4])

	in := stream.NewMemoryStream(out)
	outStream := stream.NewMemoryStream(nil)
	require.NoError(t, Decompress(in, outStream, nil))
	require.Equal(t, plaintext, outStream.Bytes())
}

func TestLzhamRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	plaintext := make([]byte, 1<<20)
	rng.Read(plaintext)

	out := compressToBytes(t, plaintext, CompressOptions{Signature: SignatureLzham})

	prefixLen := 2 + 4 + 4 + 16 // magic + inner version + hash length + hash
	require.Equal(t, []byte{0x53, 0x43, 0x4C, 0x5A, 0x12}, out[prefixLen:prefixLen+5])
	require.Equal(t, []byte{0x00, 0x00, 0x10, 0x00}, out[prefixLen+5:prefixLen+9])

	in := stream.NewMemoryStream(out)
	outStream := stream.NewMemoryStream(nil)
	require.NoError(t, Decompress(in, outStream, nil))
	require.Equal(t, plaintext, outStream.Bytes())
}

func TestVersion4PlaceholderTrailerRoundTrip(t *testing.T) {
	plaintext := []byte("x")
	out := compressToBytes(t, plaintext, CompressOptions{Signature: SignatureZstd, WriteAssets: true})

	require.True(t, bytes.HasSuffix(out, []byte{'S', 'T', 'A', 'R', 'T', 0, 0, 0, 0, 0, 2}))

	in := stream.NewMemoryStream(out)
	outStream := stream.NewMemoryStream(nil)
	var assets []AssetRecord
	require.NoError(t, Decompress(in, outStream, &assets))
	require.Equal(t, plaintext, outStream.Bytes())
	require.Empty(t, assets)
}

func TestBadMagicRejected(t *testing.T) {
	in := stream.NewMemoryStream([]byte{0x00, 0x00, 0x00, 0x00})
	out := stream.NewMemoryStream(nil)
	err := Decompress(in, out, nil)
	require.Error(t, err)
	var scErr *Error
	require.ErrorAs(t, err, &scErr)
	require.Equal(t, BadMagic, scErr.Kind)
	empty, _ := out.Data()
	require.Empty(t, empty)
}

func TestHashFidelity(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	out := compressToBytes(t, plaintext, CompressOptions{Signature: SignatureZstd})
	sum := md5.Sum(plaintext)
	require.Equal(t, sum[:], out[10:26])
}

func TestUnsupportedNestedWrappedVersionRejected(t *testing.T) {
	// Hand-craft a version-4-inside-version-4 header: magic, outer=4,
	// "inner"=4 is rejected before any trailer work happens.
	buf := []byte{0x53, 0x43, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x04}
	in := stream.NewMemoryStream(buf)
	out := stream.NewMemoryStream(nil)
	err := Decompress(in, out, nil)
	require.Error(t, err)
	var scErr *Error
	require.ErrorAs(t, err, &scErr)
	require.Equal(t, UnsupportedVersion, scErr.Kind)
}

func TestRoundTripEverySignature(t *testing.T) {
	plaintext := []byte("round trip payload with some repeated repeated repeated structure")
	for _, sig := range []Signature{SignatureLzma, SignatureLzham, SignatureZstd} {
		sig := sig
		t.Run(sig.String(), func(t *testing.T) {
			out := compressToBytes(t, plaintext, CompressOptions{Signature: sig})
			in := stream.NewMemoryStream(out)
			outStream := stream.NewMemoryStream(nil)
			require.NoError(t, Decompress(in, outStream, nil))
			require.Equal(t, plaintext, outStream.Bytes())
		})
	}
}
