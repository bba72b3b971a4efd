package app

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

func TestAddressCodecsFollowSDKConfig(t *testing.T) {
	account, validator := AddressCodecs()
	bz := []byte("hifi-encoding-addr20")

	addr, err := account.BytesToString(bz)
	require.NoError(t, err)
	require.Equal(t, sdk.AccAddress(bz).String(), addr)

	back, err := account.StringToBytes(addr)
	require.NoError(t, err)
	require.Equal(t, bz, back)

	valAddr, err := validator.BytesToString(bz)
	require.NoError(t, err)
	require.Equal(t, sdk.ValAddress(bz).String(), valAddr)
}

func TestMakeEncodingConfig(t *testing.T) {
	cfg := MakeEncodingConfig()
	require.NotNil(t, cfg.InterfaceRegistry)
	require.NotNil(t, cfg.Codec)
	require.NotNil(t, cfg.Amino)
	require.NotNil(t, cfg.TxConfig.NewTxBuilder())

	_, err := cfg.InterfaceRegistry.Resolve("/cosmos.bank.v1beta1.MsgSend")
	require.NoError(t, err)
}
