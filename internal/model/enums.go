package model

type PairingState string

const (
	PairingStatePending PairingState = "pending"
	PairingStatePaired  PairingState = "paired"
	PairingStateExpired PairingState = "expired"
)

// Terminal reports whether no further transition is possible.
func (s PairingState) Terminal() bool {
	return s == PairingStatePaired || s == PairingStateExpired
}

// PairingStatus is the read-side projection of a code, including codes the
// registry does not hold.
type PairingStatus string

const (
	PairingStatusPending  PairingStatus = "pending"
	PairingStatusPaired   PairingStatus = "paired"
	PairingStatusExpired  PairingStatus = "expired"
	PairingStatusNotFound PairingStatus = "not_found"
)
