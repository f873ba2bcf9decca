package address

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vitalik = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"checksummed", vitalik, vitalik, false},
		{"lower case", strings.ToLower(vitalik), vitalik, false},
		{"upper case digits", "0x" + strings.ToUpper(vitalik[2:]), vitalik, false},
		{"upper case prefix", "0X" + vitalik[2:], vitalik, false},
		{"eip55 vector", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"surrounding spaces", " " + vitalik + " ", vitalik, false},
		{"missing prefix", vitalik[2:], "", true},
		{"too short", "0xd8dA6BF269", "", true},
		{"too long", vitalik + "aa", "", true},
		{"non hex", "0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ", "", true},
		{"prefix only", "0x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAddress), "error %v should wrap ErrInvalidAddress", err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	variants := []string{
		"0x52908400098527886e0f7030069857d2e4169ee7",
		"0x52908400098527886E0F7030069857D2E4169EE7",
		"0x52908400098527886e0F7030069857D2e4169Ee7",
	}
	first, err := Normalize(variants[0])
	require.NoError(t, err)
	for _, v := range variants[1:] {
		got, err := Normalize(v)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestNormalizeAll(t *testing.T) {
	got, err := NormalizeAll([]string{strings.ToLower(vitalik), "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
	require.NoError(t, err)
	assert.Equal(t, []string{vitalik, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, got)

	got, err = NormalizeAll([]string{vitalik, "0xbad"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Nil(t, got)

	_, err = NormalizeAll([]string{vitalik, ""})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	got, err = NormalizeAll(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(vitalik, strings.ToLower(vitalik)))
	assert.False(t, Equal(vitalik, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal("0xbad", "0xbad"))
}
