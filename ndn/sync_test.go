package ndn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/psync/wire"
)

func TestAppendHello(t *testing.T) {
	n := AppendHello(ParseName("/psync"))
	require.Equal(t, "/psync/hello", n.String())
}

func TestAppendAndParseSync(t *testing.T) {
	bf := wire.PutBlock(nil, []byte{1, 2, 3})
	il := wire.PutBlock(nil, []byte{9, 9, 9, 9})

	name := AppendSync(ParseName("/psync"), 1, 1000, bf, il)
	n, p, bfb, ilb, err := ParseSync(name)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1000, p)
	require.Equal(t, []byte{1, 2, 3}, bfb)
	require.Equal(t, []byte{9, 9, 9, 9}, ilb)
}

func TestParseSyncRejectsShortName(t *testing.T) {
	_, _, _, _, err := ParseSync(ParseName("/psync/sync"))
	require.ErrorIs(t, err, ErrMalformedSyncName)
}

func TestParseSyncRejectsBadComponent(t *testing.T) {
	_, _, _, _, err := ParseSync(ParseName("/psync/sync/abc/1000/x/y"))
	require.ErrorIs(t, err, ErrMalformedSyncName)
}

func TestLastComponent(t *testing.T) {
	require.Nil(t, LastComponent(Name{}))
	require.Equal(t, Component("b"), LastComponent(ParseName("/a/b")))
}
