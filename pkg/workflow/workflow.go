// Package workflow models the contract lifecycle and the three-party signing
// rules. Transitions are pure functions over the current status plus the set
// of signatures already captured; they return either the new status or a
// typed rejection, so handlers can tell a local precondition failure apart
// from a state conflict before touching the store.
package workflow

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPendente              Status = "PENDENTE"
	StatusAguardandoAssinaturas Status = "AGUARDANDO_ASSINATURAS"
	StatusAtivo                 Status = "ATIVO"
	StatusEncerrado             Status = "ENCERRADO"
	StatusRevogado              Status = "REVOGADO"
)

// Party identifies who is attaching a signature.
type Party string

const (
	PartyTenant Party = "TENANT"
	PartyOwner  Party = "OWNER"
	PartyAgency Party = "AGENCY"
)

// Geolocation is an optional capture attribute; it is only recorded when the
// signer explicitly consented.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Signature is one party's captured signature.
type Signature struct {
	Party    Party        `json:"party"`
	Image    string       `json:"image"`
	SignedAt time.Time    `json:"signed_at"`
	IP       string       `json:"ip"`
	Geo      *Geolocation `json:"geo,omitempty"`
}

// Rejection is a refused transition or signature attempt.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string { return fmt.Sprintf("%s: %s", r.Code, r.Message) }

func reject(code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	CodeInvalidState    = "INVALID_STATE"
	CodeAlreadySigned   = "ALREADY_SIGNED"
	CodeAwaitingParties = "AWAITING_PARTIES"
	CodeUnknownParty    = "UNKNOWN_PARTY"
	CodeMissingImage    = "MISSING_SIGNATURE_IMAGE"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusEncerrado || s == StatusRevogado
}

// CanEditTerms reports whether contract terms (rent, dates, clauses,
// property) may still be changed. Only drafts are editable.
func (s Status) CanEditTerms() bool { return s == StatusPendente }

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPendente, StatusAguardandoAssinaturas, StatusAtivo, StatusEncerrado, StatusRevogado:
		return true
	}
	return false
}

// Valid reports whether p is a known party kind.
func (p Party) Valid() bool {
	switch p {
	case PartyTenant, PartyOwner, PartyAgency:
		return true
	}
	return false
}

// Prepare is the one-way PENDENTE -> AGUARDANDO_ASSINATURAS transition. The
// caller freezes the content snapshot at the same moment; there is no path
// back to an editable draft.
func Prepare(s Status) (Status, *Rejection) {
	if s != StatusPendente {
		return s, reject(CodeInvalidState, "contract in %s cannot be prepared for signing", s)
	}
	return StatusAguardandoAssinaturas, nil
}

// CanSign decides signature eligibility. Tenant and owner may sign in either
// order, each exactly once. The agency countersigns: it becomes eligible only
// once both tenant and owner signatures exist.
func CanSign(s Status, party Party, signed map[Party]bool) (bool, *Rejection) {
	if !party.Valid() {
		return false, reject(CodeUnknownParty, "unknown signing party %q", party)
	}
	if s != StatusAguardandoAssinaturas {
		return false, reject(CodeInvalidState, "contract in %s is not collecting signatures", s)
	}
	if signed[party] {
		return false, reject(CodeAlreadySigned, "%s has already signed", party)
	}
	if party == PartyAgency && (!signed[PartyTenant] || !signed[PartyOwner]) {
		return false, reject(CodeAwaitingParties, "agency countersigns only after tenant and owner")
	}
	return true, nil
}

// ApplySignature records party into the signed set and returns the resulting
// status: ATIVO once all three signatures are present, otherwise still
// AGUARDANDO_ASSINATURAS.
func ApplySignature(s Status, party Party, signed map[Party]bool) (Status, *Rejection) {
	ok, rej := CanSign(s, party, signed)
	if !ok {
		return s, rej
	}
	signed[party] = true
	if signed[PartyTenant] && signed[PartyOwner] && signed[PartyAgency] {
		return StatusAtivo, nil
	}
	return StatusAguardandoAssinaturas, nil
}

// Revoke moves any non-terminal contract to the REVOGADO hard terminal.
func Revoke(s Status) (Status, *Rejection) {
	if s.IsTerminal() {
		return s, reject(CodeInvalidState, "contract in %s cannot be revoked", s)
	}
	return StatusRevogado, nil
}

// Close moves any non-terminal contract to the ENCERRADO hard terminal.
func Close(s Status) (Status, *Rejection) {
	if s.IsTerminal() {
		return s, reject(CodeInvalidState, "contract in %s cannot be closed", s)
	}
	return StatusEncerrado, nil
}

// Capture is the raw signing submission before it becomes a Signature.
// GeoSupported is false when the submitting context cannot provide
// geolocation at all, in which case consent is not required and the
// signature proceeds without location.
type Capture struct {
	Party        Party
	Image        string
	IP           string
	GeoConsent   bool
	GeoSupported bool
	Geo          *Geolocation
}

// ValidateCapture runs the local precondition checks that must block a
// submission before any network or store write. A consented-but-unresolved
// location is not an error: signing proceeds without it.
func ValidateCapture(c Capture) *Rejection {
	if !c.Party.Valid() {
		return reject(CodeUnknownParty, "unknown signing party %q", c.Party)
	}
	if c.Image == "" {
		return reject(CodeMissingImage, "a drawn signature image is required")
	}
	return nil
}

// GeoToRecord returns the geolocation that should be persisted with the
// signature: nil unless the signer consented and a location resolved.
func (c Capture) GeoToRecord() *Geolocation {
	if !c.GeoConsent || !c.GeoSupported {
		return nil
	}
	return c.Geo
}

// SignedSet builds the party->signed index used by CanSign from persisted
// signature rows.
func SignedSet(sigs []Signature) map[Party]bool {
	out := make(map[Party]bool, len(sigs))
	for _, s := range sigs {
		out[s.Party] = true
	}
	return out
}
