package hdkey_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Seeds from the canonical BIP-32 test vectors.
const (
	vector1Seed = "000102030405060708090a0b0c0d0e0f"
	vector2Seed = "fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a2" +
		"9f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542"
	vector3Seed = "4b381541583be4423346c643850da4b320e46a87ae3d2a4e6da11eba819cd4ac" +
		"ba45d239319ac14f863b8d5ab5a0d0c64d2e8a1e7d1457df2e5a3c51c73235be"
)

func mustSeed(t *testing.T, seedHex string) []byte {
	t.Helper()

	seed, err := hex.DecodeString(seedHex)
	require.NoError(t, err)
	return seed
}

func TestNewMaster(t *testing.T) {
	t.Parallel()

	t.Run("KnownMasterKeys", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			seed     string
			wantXprv string
		}{
			{
				name: "vector 1",
				seed: vector1Seed,
				wantXprv: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqji" +
					"ChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
			},
			{
				name: "vector 2",
				seed: vector2Seed,
				wantXprv: "xprv9s21ZrQH143K31xYSDQpPDxsXRTUcvj2iNHm5NUtrGiGG5e2DtALGds" +
					"o3pGz6ssrdK4PFmM8NSpSBHNqPqm55Qn3LqFtT2emdEXVYsCzC2U",
			},
			{
				name: "vector 3",
				seed: vector3Seed,
				wantXprv: "xprv9s21ZrQH143K25QhxbucbDDuQ4naNntJRi4KUfWT7xo4EKsHt2QJDu7" +
					"KXp1A3u7Bi1j8ph3EGsZ9Xvz9dGuVrtHHs7pXeTzjuxBrCmmhgC6",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				master, err := hdkey.NewMaster(mustSeed(t, tt.seed))
				require.NoError(t, err)

				assert.Equal(t, tt.wantXprv, master.String())
				assert.True(t, master.IsPrivate())
				assert.Equal(t, uint8(0), master.Depth())
				assert.Equal(t, uint32(0), master.ChildIndex())
				assert.Equal(t, []byte{0, 0, 0, 0}, master.ParentFingerprint())
			})
		}
	})

	t.Run("MasterFingerprint", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		assert.Equal(t, "3442193e", hex.EncodeToString(master.Fingerprint()))
	})

	t.Run("SeedLengthBounds", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			length  int
			wantErr bool
		}{
			{name: "below minimum", length: hdkey.MinSeedBytes - 1, wantErr: true},
			{name: "at minimum", length: hdkey.MinSeedBytes, wantErr: false},
			{name: "at maximum", length: hdkey.MaxSeedBytes, wantErr: false},
			{name: "above maximum", length: hdkey.MaxSeedBytes + 1, wantErr: true},
			{name: "empty", length: 0, wantErr: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				seed := bytes.Repeat([]byte{0x01}, tt.length)
				master, err := hdkey.NewMaster(seed)
				if tt.wantErr {
					require.Error(t, err)
					assert.True(t, kferr.Is(err, kferr.ErrInvalidSeed))
					assert.Nil(t, master)
					return
				}
				require.NoError(t, err)
				require.NotNil(t, master)
			})
		}
	})
}

func TestDeriveVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seed     string
		path     string
		wantXpub string
		wantXprv string
	}{
		{
			name: "vector 1 chain m/0'",
			seed: vector1Seed,
			path: "m/0'",
			wantXpub: "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP" +
				"6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
			wantXprv: "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4" +
				"cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
		},
		{
			name: "vector 1 chain m/0'/1",
			seed: vector1Seed,
			path: "m/0'/1",
			wantXpub: "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFH" +
				"KkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
			wantXprv: "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSx" +
				"qu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
		},
		{
			name: "vector 1 chain m/0'/1/2'",
			seed: vector1Seed,
			path: "m/0'/1/2'",
			wantXpub: "xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgq" +
				"FJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
			wantXprv: "xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptW" +
				"mT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
		},
		{
			name: "vector 1 chain m/0'/1/2'/2",
			seed: vector1Seed,
			path: "m/0'/1/2'/2",
			wantXpub: "xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJ" +
				"AyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
			wantXprv: "xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Ty" +
				"h8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334",
		},
		{
			name: "vector 1 chain m/0'/1/2'/2/1000000000",
			seed: vector1Seed,
			path: "m/0'/1/2'/2/1000000000",
			wantXpub: "xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNT" +
				"EcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
			wantXprv: "xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8" +
				"kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76",
		},
		{
			name: "vector 2 chain m/0",
			seed: vector2Seed,
			path: "m/0",
			wantXpub: "xpub69H7F5d8KSRgmmdJg2KhpAK8SR3DjMwAdkxj3ZuxV27CprR9LgpeyGm" +
				"XUbC6wb7ERfvrnKZjXoUmmDznezpbZb7ap6r1D3tgFxHmwMkQTPH",
			wantXprv: "xprv9vHkqa6EV4sPZHYqZznhT2NPtPCjKuDKGY38FBWLvgaDx45zo9WQRUT" +
				"3dKYnjwih2yJD9mkrocEZXo1ex8G81dwSM1fwqWpWkeS3v86pgKt",
		},
		{
			name: "vector 2 chain m/0/2147483647'",
			seed: vector2Seed,
			path: "m/0/2147483647'",
			wantXpub: "xpub6ASAVgeehLbnwdqV6UKMHVzgqAG8Gr6riv3Fxxpj8ksbH9ebxaEyBLZ" +
				"85ySDhKiLDBrQSARLq1uNRts8RuJiHjaDMBU4Zn9h8LZNnBC5y4a",
			wantXprv: "xprv9wSp6B7kry3Vj9m1zSnLvN3xH8RdsPP1Mh7fAaR7aRLcQMKTR2vidYE" +
				"eEg2mUCTAwCd6vnxVrcjfy2kRgVsFawNzmjuHc2YmYRmagcEPdU9",
		},
		{
			name: "vector 2 chain m/0/2147483647'/1",
			seed: vector2Seed,
			path: "m/0/2147483647'/1",
			wantXpub: "xpub6DF8uhdarytz3FWdA8TvFSvvAh8dP3283MY7p2V4SeE2wyWmG5mg5Ew" +
				"VvmdMVCQcoNJxGoWaU9DCWh89LojfZ537wTfunKau47EL2dhHKon",
			wantXprv: "xprv9zFnWC6h2cLgpmSA46vutJzBcfJ8yaJGg8cX1e5StJh45BBciYTRXSd" +
				"25UEPVuesF9yog62tGAQtHjXajPPdbRCHuWS6T8XA2ECKADdw4Ef",
		},
		{
			name: "vector 2 chain m/0/2147483647'/1/2147483646'",
			seed: vector2Seed,
			path: "m/0/2147483647'/1/2147483646'",
			wantXpub: "xpub6ERApfZwUNrhLCkDtcHTcxd75RbzS1ed54G1LkBUHQVHQKqhMkhgbmJ" +
				"bZRkrgZw4koxb5JaHWkY4ALHY2grBGRjaDMzQLcgJvLJuZZvRcEL",
			wantXprv: "xprvA1RpRA33e1JQ7ifknakTFpgNXPmW2YvmhqLQYMmrj4xJXXWYpDPS3xz" +
				"7iAxn8L39njGVyuoseXzU6rcxFLJ8HFsTjSyQbLYnMpCqE2VbFWc",
		},
		{
			name: "vector 2 chain m/0/2147483647'/1/2147483646'/2",
			seed: vector2Seed,
			path: "m/0/2147483647'/1/2147483646'/2",
			wantXpub: "xpub6FnCn6nSzZAw5Tw7cgR9bi15UV96gLZhjDstkXXxvCLsUXBGXPdSnLF" +
				"bdpq8p9HmGsApME5hQTZ3emM2rnY5agb9rXpVGyy3bdW6EEgAtqt",
			wantXprv: "xprvA2nrNbFZABcdryreWet9Ea4LvTJcGsqrMzxHx98MMrotbir7yrKCEXw" +
				"7nadnHM8Dq38EGfSh6dqA9QWTyefMLEcBYJUuekgW4BYPJcr9E7j",
		},
		{
			name: "vector 3 chain m/0'",
			seed: vector3Seed,
			path: "m/0'",
			wantXpub: "xpub68NZiKmJWnxxS6aaHmn81bvJeTESw724CRDs6HbuccFQN9Ku14VQrAD" +
				"WgqbhhTHBaohPX4CjNLf9fq9MYo6oDaPPLPxSb7gwQN3ih19Zm4Y",
			wantXprv: "xprv9uPDJpEQgRQfDcW7BkF7eTya6RPxXeJCqCJGHuCJ4GiRVLzkTXBAJMu" +
				"2qaMWPrS7AANYqdq6vcBcBUdJCVVFceUvJFjaPdGZ2y9WACViL4L",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			master, err := hdkey.NewMaster(mustSeed(t, tt.seed))
			require.NoError(t, err)

			path, err := hdkey.ParsePath(tt.path)
			require.NoError(t, err)

			key, err := master.Derive(path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantXprv, key.String())
			assert.Equal(t, tt.wantXpub, key.Neuter().String())
			assert.Equal(t, uint8(len(path)), key.Depth())
			assert.Equal(t, path[len(path)-1], key.ChildIndex())
		})
	}
}

func TestDeriveKnownScalar(t *testing.T) {
	t.Parallel()

	// Vector 1 chain m/0' private key material, byte for byte.
	master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
	require.NoError(t, err)

	child, err := master.Child(hdkey.HardenedKeyStart)
	require.NoError(t, err)

	priv, err := child.PrivateKeyBytes()
	require.NoError(t, err)
	assert.Equal(t,
		"edb2e14f9ee77d26dd93b4ecede8d16ed408ce149b6cd80b0715a2d911a0afea",
		hex.EncodeToString(priv))

	pub := child.PublicKeyBytes()
	require.Len(t, pub, 33)
	assert.Contains(t, []byte{0x02, 0x03}, pub[0])
}

func TestChildPublicParent(t *testing.T) {
	t.Parallel()

	t.Run("MatchesPrivateDerivation", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)
		neutered := master.Neuter()

		for _, index := range []uint32{0, 1, 2, 1000} {
			fromPriv, err := master.Child(index)
			require.NoError(t, err)

			fromPub, err := neutered.Child(index)
			require.NoError(t, err)

			assert.Equal(t, fromPriv.PublicKeyBytes(), fromPub.PublicKeyBytes())
			assert.Equal(t, fromPriv.Neuter().String(), fromPub.String())
			assert.False(t, fromPub.IsPrivate())
		}
	})

	t.Run("HardenedRequiresPrivate", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		child, err := master.Neuter().Child(hdkey.HardenedKeyStart)
		require.Error(t, err)
		assert.True(t, kferr.Is(err, kferr.ErrHardenedFromPublic))
		assert.Nil(t, child)
	})
}

func TestDeriveDepthLimit(t *testing.T) {
	t.Parallel()

	t.Run("PathTooLong", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		key, err := master.Derive(make(hdkey.Path, 256))
		require.Error(t, err)
		assert.True(t, kferr.Is(err, kferr.ErrInvalidPath))
		assert.Nil(t, key)
	})

	t.Run("ChildAtMaxDepth", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		key, err := master.Derive(make(hdkey.Path, 255))
		require.NoError(t, err)
		require.Equal(t, uint8(255), key.Depth())

		child, err := key.Child(0)
		require.Error(t, err)
		assert.True(t, kferr.Is(err, kferr.ErrInvalidPath))
		assert.Nil(t, child)
	})
}

func TestNeuter(t *testing.T) {
	t.Parallel()

	master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
	require.NoError(t, err)

	neutered := master.Neuter()
	assert.False(t, neutered.IsPrivate())
	assert.Equal(t, master.Depth(), neutered.Depth())
	assert.Equal(t, master.ChildIndex(), neutered.ChildIndex())
	assert.Equal(t, master.ParentFingerprint(), neutered.ParentFingerprint())
	assert.Equal(t, master.PublicKeyBytes(), neutered.PublicKeyBytes())
	assert.Equal(t, master.Fingerprint(), neutered.Fingerprint())

	priv, err := neutered.PrivateKeyBytes()
	require.Error(t, err)
	assert.True(t, kferr.Is(err, kferr.ErrPublicOnlyKey))
	assert.Nil(t, priv)

	// Neutering an already public key is a no-op copy.
	assert.Equal(t, neutered.String(), neutered.Neuter().String())
}

func TestExtendedKeySerialization(t *testing.T) {
	t.Parallel()

	t.Run("RoundTrip", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		child, err := master.Derive(hdkey.Path{hdkey.HardenedKeyStart, 1})
		require.NoError(t, err)

		for _, encoded := range []string{child.String(), child.Neuter().String()} {
			parsed, err := hdkey.ParseExtendedKey(encoded)
			require.NoError(t, err)
			assert.Equal(t, encoded, parsed.String())
			assert.Equal(t, child.Depth(), parsed.Depth())
			assert.Equal(t, child.ChildIndex(), parsed.ChildIndex())
			assert.Equal(t, child.PublicKeyBytes(), parsed.PublicKeyBytes())
		}
	})

	t.Run("ParsedPrivateDerivesSameChildren", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector2Seed))
		require.NoError(t, err)

		parsed, err := hdkey.ParseExtendedKey(master.String())
		require.NoError(t, err)
		require.True(t, parsed.IsPrivate())

		want, err := master.Child(7)
		require.NoError(t, err)
		got, err := parsed.Child(7)
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.String())
	})

	t.Run("InvalidInputs", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)
		valid := master.String()

		// Corrupt the checksum without changing the length.
		corrupted := []byte(valid)
		if corrupted[len(corrupted)-1] == '2' {
			corrupted[len(corrupted)-1] = '3'
		} else {
			corrupted[len(corrupted)-1] = '2'
		}

		tests := []struct {
			name  string
			input string
		}{
			{name: "empty string", input: ""},
			{name: "not base58 payload", input: "notakey"},
			{name: "truncated", input: valid[:len(valid)-10]},
			{name: "corrupted checksum", input: string(corrupted)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				key, err := hdkey.ParseExtendedKey(tt.input)
				require.Error(t, err)
				assert.True(t, kferr.Is(err, kferr.ErrInvalidExtendedKey))
				assert.Nil(t, key)
			})
		}
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		decoded := base58.Decode(master.String())
		require.Len(t, decoded, 82)

		payload := make([]byte, 78)
		copy(payload, decoded[:78])
		payload[0] = 0xFF
		reencoded := base58.Encode(append(payload, checksum(payload)...))

		key, err := hdkey.ParseExtendedKey(reencoded)
		require.Error(t, err)
		assert.True(t, kferr.Is(err, kferr.ErrInvalidExtendedKey))
		assert.Nil(t, key)
	})

	t.Run("BadPrivatePadding", func(t *testing.T) {
		t.Parallel()

		master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
		require.NoError(t, err)

		decoded := base58.Decode(master.String())
		require.Len(t, decoded, 82)

		payload := make([]byte, 78)
		copy(payload, decoded[:78])
		payload[45] = 0x01
		reencoded := base58.Encode(append(payload, checksum(payload)...))

		key, err := hdkey.ParseExtendedKey(reencoded)
		require.Error(t, err)
		assert.True(t, kferr.Is(err, kferr.ErrInvalidExtendedKey))
		assert.Nil(t, key)
	})
}

func TestExtendedKeyZero(t *testing.T) {
	t.Parallel()

	master, err := hdkey.NewMaster(mustSeed(t, vector1Seed))
	require.NoError(t, err)

	child, err := master.Child(hdkey.HardenedKeyStart)
	require.NoError(t, err)

	child.Zero()
	assert.False(t, child.IsPrivate())
	assert.Empty(t, child.PublicKeyBytes())
	assert.Equal(t, uint8(0), child.Depth())
	assert.Equal(t, uint32(0), child.ChildIndex())

	priv, err := child.PrivateKeyBytes()
	require.Error(t, err)
	assert.Nil(t, priv)

	// Zero is idempotent, including on public-only keys.
	child.Zero()
	neutered := master.Neuter()
	neutered.Zero()
	neutered.Zero()
}

func checksum(payload []byte) []byte {
	first := sha256sum(payload)
	second := sha256sum(first)
	return second[:4]
}

func sha256sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
