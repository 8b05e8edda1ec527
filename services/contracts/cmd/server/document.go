package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/locagest/contratos/pkg/workflow"
	"github.com/locagest/contratos/services/contracts/internal/model"
	"github.com/locagest/contratos/services/contracts/internal/placeholder"
	"github.com/locagest/contratos/services/contracts/internal/render"
	"github.com/locagest/contratos/services/contracts/internal/store"
)

// documentSource is the slice of the store the composition pipeline reads.
type documentSource interface {
	GetTemplate(ctx context.Context, id string) (model.Template, error)
	GetProperty(ctx context.Context, id string) (model.Property, error)
	GetOwner(ctx context.Context, id string) (model.Person, error)
	GetTenant(ctx context.Context, id string) (model.Person, error)
	GetAgency(ctx context.Context, id string) (model.Agency, error)
}

// composedContent returns the document text for a contract. Once a snapshot
// is frozen it is the sole source of truth; only drafts compose from live
// related entities. Missing related records degrade to empty placeholder
// values instead of failing the build.
func composedContent(ctx context.Context, st documentSource, c model.Contract) (string, error) {
	if c.HasSnapshot() {
		return c.ContentSnapshot, nil
	}
	tpl, err := st.GetTemplate(ctx, c.TemplateID)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", c.TemplateID, err)
	}
	in := placeholder.Input{Contract: &c}

	if property, err := st.GetProperty(ctx, c.PropertyID); err == nil {
		in.Property = &property
		if owner, err := st.GetOwner(ctx, property.OwnerID); err == nil {
			in.Owner = &owner
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if tenant, err := st.GetTenant(ctx, c.TenantID); err == nil {
		in.Tenant = &tenant
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if agency, err := st.GetAgency(ctx, c.AgencyID); err == nil {
		in.Agency = &agency
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	return render.NormalizeText(render.Compose(tpl.Content, placeholder.Build(in))), nil
}

// partyFor derives the signing party from the relationship between the
// acting identity and the contract: the contract's tenant, the property's
// owner, or staff of the contract's agency.
func partyFor(ctx context.Context, st documentSource, c model.Contract, actorID string) (workflow.Party, bool) {
	if actorID == "" {
		return "", false
	}
	if actorID == c.TenantID {
		return workflow.PartyTenant, true
	}
	if property, err := st.GetProperty(ctx, c.PropertyID); err == nil && actorID == property.OwnerID {
		return workflow.PartyOwner, true
	}
	if actorID == c.AgencyID {
		return workflow.PartyAgency, true
	}
	return "", false
}

// signatureSummary strips signature images for public surfaces.
func signatureSummary(sigs []workflow.Signature) []map[string]any {
	out := make([]map[string]any, 0, len(sigs))
	for _, s := range sigs {
		entry := map[string]any{
			"party":     s.Party,
			"signed_at": s.SignedAt,
		}
		if s.Geo != nil {
			entry["geolocated"] = true
		}
		out = append(out, entry)
	}
	return out
}
