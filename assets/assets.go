package assets

import _ "embed"

// SeedTOML is the sample ledger used when no seed file is configured.
//
//go:embed seed.toml
var SeedTOML []byte
