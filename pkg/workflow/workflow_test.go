package workflow

import "testing"

func TestPrepareOnlyFromDraft(t *testing.T) {
	next, rej := Prepare(StatusPendente)
	if rej != nil {
		t.Fatalf("prepare from draft rejected: %v", rej)
	}
	if next != StatusAguardandoAssinaturas {
		t.Fatalf("unexpected status %s", next)
	}
	for _, s := range []Status{StatusAguardandoAssinaturas, StatusAtivo, StatusEncerrado, StatusRevogado} {
		if _, rej := Prepare(s); rej == nil || rej.Code != CodeInvalidState {
			t.Fatalf("prepare from %s should be rejected with INVALID_STATE, got %v", s, rej)
		}
	}
}

func TestAgencyCountersignOrdering(t *testing.T) {
	signed := map[Party]bool{}

	// No signatures yet: agency is not eligible.
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyAgency, signed); ok || rej.Code != CodeAwaitingParties {
		t.Fatalf("agency should wait for both parties, got ok=%v rej=%v", ok, rej)
	}

	// Tenant and owner may sign in either order.
	if _, rej := ApplySignature(StatusAguardandoAssinaturas, PartyOwner, signed); rej != nil {
		t.Fatalf("owner sign: %v", rej)
	}
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyAgency, signed); ok || rej.Code != CodeAwaitingParties {
		t.Fatalf("agency should still wait with one signature, got ok=%v rej=%v", ok, rej)
	}
	if _, rej := ApplySignature(StatusAguardandoAssinaturas, PartyTenant, signed); rej != nil {
		t.Fatalf("tenant sign: %v", rej)
	}

	// Both present: agency becomes eligible, and its signature activates.
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyAgency, signed); !ok {
		t.Fatalf("agency should be eligible: %v", rej)
	}
	next, rej := ApplySignature(StatusAguardandoAssinaturas, PartyAgency, signed)
	if rej != nil {
		t.Fatalf("agency sign: %v", rej)
	}
	if next != StatusAtivo {
		t.Fatalf("all signatures present should activate, got %s", next)
	}

	// Exactly once: the agency cannot sign again.
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyAgency, signed); ok || rej.Code != CodeAlreadySigned {
		t.Fatalf("double agency sign should be rejected, got ok=%v rej=%v", ok, rej)
	}
}

func TestSignRequiresCollectingState(t *testing.T) {
	for _, s := range []Status{StatusPendente, StatusAtivo, StatusEncerrado, StatusRevogado} {
		if ok, rej := CanSign(s, PartyTenant, map[Party]bool{}); ok || rej.Code != CodeInvalidState {
			t.Fatalf("signing in %s should be rejected, got ok=%v rej=%v", s, ok, rej)
		}
	}
}

func TestTenantSignsExactlyOnce(t *testing.T) {
	signed := map[Party]bool{PartyTenant: true}
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyTenant, signed); ok || rej.Code != CodeAlreadySigned {
		t.Fatalf("repeat tenant sign should be rejected, got ok=%v rej=%v", ok, rej)
	}
	if ok, rej := CanSign(StatusAguardandoAssinaturas, PartyOwner, signed); !ok {
		t.Fatalf("owner should remain eligible: %v", rej)
	}
}

func TestTerminals(t *testing.T) {
	if _, rej := Revoke(StatusAguardandoAssinaturas); rej != nil {
		t.Fatalf("revoke from collecting state: %v", rej)
	}
	if _, rej := Close(StatusAtivo); rej != nil {
		t.Fatalf("close active: %v", rej)
	}
	if _, rej := Revoke(StatusEncerrado); rej == nil {
		t.Fatal("revoking a closed contract should be rejected")
	}
	if _, rej := Close(StatusRevogado); rej == nil {
		t.Fatal("closing a revoked contract should be rejected")
	}
}

func TestValidateCapture(t *testing.T) {
	rej := ValidateCapture(Capture{Party: PartyTenant, Image: ""})
	if rej == nil || rej.Code != CodeMissingImage {
		t.Fatalf("missing image should fail locally, got %v", rej)
	}
	if rej := ValidateCapture(Capture{Party: "VISITOR", Image: "data:image/png;base64,x"}); rej == nil || rej.Code != CodeUnknownParty {
		t.Fatalf("unknown party should fail locally, got %v", rej)
	}
	// Consented but unresolved location must not block signing.
	if rej := ValidateCapture(Capture{Party: PartyOwner, Image: "img", GeoConsent: true, GeoSupported: true, Geo: nil}); rej != nil {
		t.Fatalf("consent without resolved location should pass: %v", rej)
	}
}

func TestGeoToRecord(t *testing.T) {
	loc := &Geolocation{Latitude: -23.55, Longitude: -46.63}
	c := Capture{GeoConsent: true, GeoSupported: true, Geo: loc}
	if c.GeoToRecord() != loc {
		t.Fatal("consented resolved location should be recorded")
	}
	c.GeoConsent = false
	if c.GeoToRecord() != nil {
		t.Fatal("location without consent must not be recorded")
	}
	// Context without geolocation support never records a location.
	c = Capture{GeoConsent: true, GeoSupported: false, Geo: loc}
	if c.GeoToRecord() != nil {
		t.Fatal("unsupported context must not record a location")
	}
}
