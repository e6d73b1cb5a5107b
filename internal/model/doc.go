// Package model defines the data structures shared across drivesign.
//
// # Config
//
// The [Config] struct is the normalized, validated configuration produced by
// the config package from either an INI file or environment variables:
//
//	type Config struct {
//	    RefreshTokens []string      // One refresh token per account
//	    PushTypes     []string      // Enabled notification channels, lower-cased
//	    StateBackend  StateBackend  // ini, bolt or github
//	    Channels      ChannelConfig // Flat channel credential map
//	    ...
//	}
//
// # Channels
//
// [KnownChannels] is the ordered list of supported notification channels and
// [ChannelKeys] the credential keys each of them reads from [ChannelConfig].
package model
