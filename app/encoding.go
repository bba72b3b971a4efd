package app

import (
	"fmt"

	coreaddress "cosmossdk.io/core/address"
	"cosmossdk.io/x/tx/signing"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/x/auth/tx"
	"github.com/cosmos/gogoproto/proto"
)

// EncodingConfig bundles the codecs shared by hifid, its CLI and the
// standalone pool service
type EncodingConfig struct {
	InterfaceRegistry types.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}

// AddressCodecs returns the account and validator codecs for the bech32
// prefixes on the global SDK config
func AddressCodecs() (account, validator coreaddress.Codec) {
	cfg := sdk.GetConfig()
	return address.NewBech32Codec(cfg.GetBech32AccountAddrPrefix()),
		address.NewBech32Codec(cfg.GetBech32ValidatorAddrPrefix())
}

// MakeEncodingConfig builds the app codecs. Only the SDK modules register
// message types; yieldpool, delegation and treasury carry none because their
// writes are served by hifi-api.
func MakeEncodingConfig() EncodingConfig {
	account, validator := AddressCodecs()
	signingOptions := signing.Options{
		AddressCodec:          account,
		ValidatorAddressCodec: validator,
	}

	registry, err := types.NewInterfaceRegistryWithOptions(types.InterfaceRegistryOptions{
		ProtoFiles:     proto.HybridResolver,
		SigningOptions: signingOptions,
	})
	if err != nil {
		panic(fmt.Errorf("interface registry: %w", err))
	}
	std.RegisterInterfaces(registry)
	ModuleBasics.RegisterInterfaces(registry)

	cdc := codec.NewProtoCodec(registry)
	txConfig, err := tx.NewTxConfigWithOptions(cdc, tx.ConfigOptions{
		EnabledSignModes: tx.DefaultSignModes,
		SigningOptions:   &signingOptions,
	})
	if err != nil {
		panic(fmt.Errorf("tx config: %w", err))
	}

	amino := codec.NewLegacyAmino()
	std.RegisterLegacyAminoCodec(amino)
	ModuleBasics.RegisterLegacyAminoCodec(amino)

	return EncodingConfig{
		InterfaceRegistry: registry,
		Codec:             cdc,
		TxConfig:          txConfig,
		Amino:             amino,
	}
}
