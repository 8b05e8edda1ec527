package main

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/locagest/contratos/pkg/workflow"
	"github.com/locagest/contratos/services/contracts/internal/model"
	"github.com/locagest/contratos/services/contracts/internal/store"
)

type fakeSource struct {
	templates  map[string]model.Template
	properties map[string]model.Property
	owners     map[string]model.Person
	tenants    map[string]model.Person
	agencies   map[string]model.Agency
}

func (f *fakeSource) GetTemplate(_ context.Context, id string) (model.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return model.Template{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeSource) GetProperty(_ context.Context, id string) (model.Property, error) {
	p, ok := f.properties[id]
	if !ok {
		return model.Property{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) GetOwner(_ context.Context, id string) (model.Person, error) {
	p, ok := f.owners[id]
	if !ok {
		return model.Person{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) GetTenant(_ context.Context, id string) (model.Person, error) {
	p, ok := f.tenants[id]
	if !ok {
		return model.Person{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) GetAgency(_ context.Context, id string) (model.Agency, error) {
	a, ok := f.agencies[id]
	if !ok {
		return model.Agency{}, store.ErrNotFound
	}
	return a, nil
}

func testSource() *fakeSource {
	return &fakeSource{
		templates: map[string]model.Template{
			"tpl_1": {ID: "tpl_1", Content: "Locador: [NOME_LOCADOR]. Locatário: [NOME_LOCATARIO].\n"},
		},
		properties: map[string]model.Property{
			"prp_1": {ID: "prp_1", OwnerID: "own_1"},
		},
		owners: map[string]model.Person{
			"own_1": {ID: "own_1", Name: "Maria Silva"},
		},
		tenants: map[string]model.Person{
			"ten_1": {ID: "ten_1", Name: "João Pereira"},
		},
		agencies: map[string]model.Agency{
			"agc_1": {ID: "agc_1", Name: "Locagest Imóveis"},
		},
	}
}

func testContract() model.Contract {
	return model.Contract{
		ID:         "ctr_1",
		TemplateID: "tpl_1",
		PropertyID: "prp_1",
		TenantID:   "ten_1",
		AgencyID:   "agc_1",
		Status:     workflow.StatusPendente,
	}
}

func TestComposedContentFrozenSnapshotIgnoresLiveEdits(t *testing.T) {
	src := testSource()
	c := testContract()

	draft, err := composedContent(context.Background(), src, c)
	if err != nil {
		t.Fatalf("compose draft: %v", err)
	}
	if !strings.Contains(draft, "Maria Silva") {
		t.Fatalf("draft should compose from live entities: %q", draft)
	}

	// Freeze, then change the owner's profile: the rendered content must
	// not move.
	frozenAt := time.Now()
	c.ContentSnapshot = draft
	c.SnapshotFrozenAt = &frozenAt
	src.owners["own_1"] = model.Person{ID: "own_1", Name: "Maria Souza"}

	got, err := composedContent(context.Background(), src, c)
	if err != nil {
		t.Fatalf("compose frozen: %v", err)
	}
	if got != draft {
		t.Fatalf("frozen content changed after a profile edit: %q vs %q", got, draft)
	}
	if strings.Contains(got, "Maria Souza") {
		t.Fatal("frozen content picked up a live entity edit")
	}
}

func TestComposedContentTemplateErrorPropagates(t *testing.T) {
	src := testSource()
	c := testContract()
	c.TemplateID = "tpl_missing"
	if _, err := composedContent(context.Background(), src, c); err == nil {
		t.Fatal("missing template should fail the build")
	}
}

func TestComposedContentMissingEntitiesDegrade(t *testing.T) {
	src := testSource()
	delete(src.tenants, "ten_1")
	delete(src.agencies, "agc_1")

	got, err := composedContent(context.Background(), src, testContract())
	if err != nil {
		t.Fatalf("compose with missing entities: %v", err)
	}
	if !strings.Contains(got, "Locatário: .") {
		t.Fatalf("missing tenant should render empty, got %q", got)
	}
	if !strings.Contains(got, "Maria Silva") {
		t.Fatalf("present entities should still resolve, got %q", got)
	}
}

func TestPartyFor(t *testing.T) {
	src := testSource()
	c := testContract()
	ctx := context.Background()

	cases := []struct {
		actorID string
		party   workflow.Party
		ok      bool
	}{
		{"ten_1", workflow.PartyTenant, true},
		{"own_1", workflow.PartyOwner, true},
		{"agc_1", workflow.PartyAgency, true},
		{"stranger", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		party, ok := partyFor(ctx, src, c, tc.actorID)
		if ok != tc.ok || party != tc.party {
			t.Fatalf("partyFor(%q) = %q,%v want %q,%v", tc.actorID, party, ok, tc.party, tc.ok)
		}
	}
}

func TestSignatureSummaryStripsImages(t *testing.T) {
	geo := &workflow.Geolocation{Latitude: -23.55, Longitude: -46.63}
	sigs := []workflow.Signature{
		{Party: workflow.PartyTenant, Image: "data:image/png;base64,xxx", SignedAt: time.Now(), Geo: geo},
		{Party: workflow.PartyOwner, Image: "data:image/png;base64,yyy", SignedAt: time.Now()},
	}
	out := signatureSummary(sigs)
	if len(out) != 2 {
		t.Fatalf("entries: %d", len(out))
	}
	for _, entry := range out {
		if _, leaked := entry["image"]; leaked {
			t.Fatal("signature image must not appear on public surfaces")
		}
	}
	if out[0]["geolocated"] != true {
		t.Fatal("geolocated flag missing for located signature")
	}
	if _, present := out[1]["geolocated"]; present {
		t.Fatal("unlocated signature should carry no geolocated flag")
	}
}

func TestClientIP(t *testing.T) {
	r := &http.Request{RemoteAddr: "203.0.113.7:51234", Header: http.Header{}}
	if got := clientIP(r); got != "203.0.113.7" {
		t.Fatalf("clientIP: %q", got)
	}
	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	if got := clientIP(r); got != "198.51.100.2" {
		t.Fatalf("forwarded clientIP: %q", got)
	}
}
