package data

import _ "embed"

// Tickets seeds the in-memory ledger.
//
//go:embed tickets.json
var Tickets []byte
