// Package store persists contracts, their related records and the signing
// audit trail. All state-changing updates are guarded by the expected current
// status so concurrent transitions surface as ErrStateChanged instead of
// silently overwriting each other.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locagest/contratos/pkg/workflow"
	"github.com/locagest/contratos/services/contracts/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrStateChanged  = errors.New("contract state changed, refresh and retry")
	ErrAlreadySigned = errors.New("party has already signed")
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- templates ---

func (s *Store) CreateTemplate(ctx context.Context, t model.Template) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO templates(id,name,content,allowed_user_types)
VALUES($1,$2,$3,$4)`, t.ID, t.Name, t.Content, t.AllowedUserTypes)
	return err
}

func (s *Store) GetTemplate(ctx context.Context, id string) (model.Template, error) {
	var t model.Template
	err := s.DB.QueryRow(ctx, `SELECT id,name,content,allowed_user_types,created_at FROM templates WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.Content, &t.AllowedUserTypes, &t.CreatedAt)
	return t, notFound(err)
}

func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	rows, err := s.DB.Query(ctx, `SELECT id,name,content,allowed_user_types,created_at FROM templates ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Content, &t.AllowedUserTypes, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- related entities ---

func (s *Store) GetAgency(ctx context.Context, id string) (model.Agency, error) {
	var a model.Agency
	err := s.DB.QueryRow(ctx, `SELECT id,name,cnpj,creci,address,email,phone FROM agencies WHERE id=$1`, id).
		Scan(&a.ID, &a.Name, &a.CNPJ, &a.CRECI, &a.Address, &a.Email, &a.Phone)
	return a, notFound(err)
}

func (s *Store) getPerson(ctx context.Context, table, id string) (model.Person, error) {
	var p model.Person
	err := s.DB.QueryRow(ctx, `SELECT id,name,document,nationality,marital_status,occupation,email,phone,address FROM `+table+` WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Document, &p.Nationality, &p.MaritalStatus, &p.Occupation, &p.Email, &p.Phone, &p.Address)
	return p, notFound(err)
}

func (s *Store) GetOwner(ctx context.Context, id string) (model.Person, error) {
	return s.getPerson(ctx, "owners", id)
}

func (s *Store) GetTenant(ctx context.Context, id string) (model.Person, error) {
	return s.getPerson(ctx, "tenants", id)
}

func (s *Store) GetProperty(ctx context.Context, id string) (model.Property, error) {
	var p model.Property
	err := s.DB.QueryRow(ctx, `SELECT id,owner_id,agency_id,kind,address,city,state,cep,registration FROM properties WHERE id=$1`, id).
		Scan(&p.ID, &p.OwnerID, &p.AgencyID, &p.Kind, &p.Address, &p.City, &p.State, &p.CEP, &p.Registration)
	return p, notFound(err)
}

// --- contracts ---

const contractCols = `id,contract_token,template_id,property_id,tenant_id,agency_id,status,
rent_cents,deposit_cents,due_day,start_date,end_date,readjustment_index,guarantee_type,
penalty_clause,creci_override,content_snapshot,snapshot_frozen_at,created_at,updated_at`

func scanContract(row pgx.Row) (model.Contract, error) {
	var c model.Contract
	err := row.Scan(&c.ID, &c.Token, &c.TemplateID, &c.PropertyID, &c.TenantID, &c.AgencyID, &c.Status,
		&c.RentCents, &c.DepositCents, &c.DueDay, &c.StartDate, &c.EndDate, &c.ReadjustmentIndex,
		&c.GuaranteeType, &c.PenaltyClause, &c.CRECIOverride, &c.ContentSnapshot, &c.SnapshotFrozenAt,
		&c.CreatedAt, &c.UpdatedAt)
	return c, notFound(err)
}

func (s *Store) CreateContract(ctx context.Context, c model.Contract) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO contracts(id,contract_token,template_id,property_id,tenant_id,agency_id,status,
rent_cents,deposit_cents,due_day,start_date,end_date,readjustment_index,guarantee_type,penalty_clause,creci_override)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		c.ID, c.Token, c.TemplateID, c.PropertyID, c.TenantID, c.AgencyID, c.Status,
		c.RentCents, c.DepositCents, c.DueDay, c.StartDate, c.EndDate,
		c.ReadjustmentIndex, c.GuaranteeType, c.PenaltyClause, c.CRECIOverride)
	return err
}

func (s *Store) GetContract(ctx context.Context, id string) (model.Contract, error) {
	return scanContract(s.DB.QueryRow(ctx, `SELECT `+contractCols+` FROM contracts WHERE id=$1`, id))
}

func (s *Store) GetContractByToken(ctx context.Context, token string) (model.Contract, error) {
	return scanContract(s.DB.QueryRow(ctx, `SELECT `+contractCols+` FROM contracts WHERE contract_token=$1`, token))
}

// TermsUpdate carries the editable draft fields.
type TermsUpdate struct {
	RentCents         int64     `json:"rent_cents"`
	DepositCents      int64     `json:"deposit_cents"`
	DueDay            int       `json:"due_day"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	ReadjustmentIndex string    `json:"readjustment_index"`
	GuaranteeType     string    `json:"guarantee_type"`
	PenaltyClause     string    `json:"penalty_clause"`
	CRECIOverride     string    `json:"creci_override"`
	PropertyID        string    `json:"property_id"`
}

// UpdateTerms only touches drafts; once a contract left PENDENTE its terms
// are immutable and the update reports ErrStateChanged.
func (s *Store) UpdateTerms(ctx context.Context, id string, u TermsUpdate) error {
	tag, err := s.DB.Exec(ctx, `UPDATE contracts SET
rent_cents=$2,deposit_cents=$3,due_day=$4,start_date=$5,end_date=$6,
readjustment_index=$7,guarantee_type=$8,penalty_clause=$9,creci_override=$10,property_id=$11,
updated_at=now()
WHERE id=$1 AND status='PENDENTE'`,
		id, u.RentCents, u.DepositCents, u.DueDay, u.StartDate, u.EndDate,
		u.ReadjustmentIndex, u.GuaranteeType, u.PenaltyClause, u.CRECIOverride, u.PropertyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateChanged
	}
	return nil
}

// FreezeSnapshot is the atomic PENDENTE -> AGUARDANDO_ASSINATURAS transition:
// the composed content is frozen in the same statement that changes status,
// guarded by the current status so two concurrent prepares cannot both win.
func (s *Store) FreezeSnapshot(ctx context.Context, id, snapshot string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE contracts SET
status='AGUARDANDO_ASSINATURAS', content_snapshot=$2, snapshot_frozen_at=now(), updated_at=now()
WHERE id=$1 AND status='PENDENTE'`, id, snapshot)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateChanged
	}
	return nil
}

// SetStatus transitions from -> to, reporting ErrStateChanged when another
// writer got there first.
func (s *Store) SetStatus(ctx context.Context, id string, from, to workflow.Status) error {
	tag, err := s.DB.Exec(ctx, `UPDATE contracts SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateChanged
	}
	return nil
}

// --- signatures ---

// InsertSignature records one party's signature exactly once, and only while
// the contract is still collecting signatures. The status predicate lives in
// the insert itself, so a revoke or close landing after the caller's
// eligibility check surfaces as ErrStateChanged instead of persisting a
// signature on a terminal contract. A lost race with the same party surfaces
// as ErrAlreadySigned.
func (s *Store) InsertSignature(ctx context.Context, contractID string, sig workflow.Signature) error {
	var lat, lng *float64
	if sig.Geo != nil {
		lat, lng = &sig.Geo.Latitude, &sig.Geo.Longitude
	}
	tag, err := s.DB.Exec(ctx, `INSERT INTO contract_signatures(contract_id,party,image,signed_at,ip,latitude,longitude)
SELECT $1,$2,$3,$4,$5,$6,$7
WHERE EXISTS (SELECT 1 FROM contracts WHERE id=$1 AND status='AGUARDANDO_ASSINATURAS')
ON CONFLICT (contract_id,party) DO NOTHING`,
		contractID, sig.Party, sig.Image, sig.SignedAt, sig.IP, lat, lng)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var signed bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM contract_signatures WHERE contract_id=$1 AND party=$2)`,
		contractID, sig.Party).Scan(&signed); err != nil {
		return err
	}
	if signed {
		return ErrAlreadySigned
	}
	return ErrStateChanged
}

func (s *Store) ListSignatures(ctx context.Context, contractID string) ([]workflow.Signature, error) {
	rows, err := s.DB.Query(ctx, `SELECT party,image,signed_at,ip,latitude,longitude
FROM contract_signatures WHERE contract_id=$1 ORDER BY signed_at`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []workflow.Signature
	for rows.Next() {
		var sig workflow.Signature
		var lat, lng *float64
		if err := rows.Scan(&sig.Party, &sig.Image, &sig.SignedAt, &sig.IP, &lat, &lng); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			sig.Geo = &workflow.Geolocation{Latitude: *lat, Longitude: *lng}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// --- events ---

func (s *Store) AddEvent(ctx context.Context, contractID, typ, actorID string, payload map[string]any) error {
	b, _ := json.Marshal(payload)
	_, err := s.DB.Exec(ctx, `INSERT INTO contract_events(contract_id,type,actor_id,payload) VALUES($1,$2,$3,$4::jsonb)`,
		contractID, typ, actorID, string(b))
	return err
}

func (s *Store) ListEvents(ctx context.Context, contractID string) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `SELECT type,actor_id,occurred_at,payload FROM contract_events WHERE contract_id=$1 ORDER BY occurred_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []map[string]any
	for rows.Next() {
		var typ string
		var actorID *string
		var at time.Time
		var payload []byte
		if err := rows.Scan(&typ, &actorID, &at, &payload); err != nil {
			return nil, err
		}
		var obj any
		_ = json.Unmarshal(payload, &obj)
		out = append(out, map[string]any{"type": typ, "actor_id": actorID, "at": at.Format(time.RFC3339), "payload": obj})
	}
	return out, rows.Err()
}

// --- idempotency ---

func (s *Store) GetIdempotencyRecord(ctx context.Context, actorID, key, endpoint string) (int, map[string]any, bool, error) {
	var status int
	var body []byte
	err := s.DB.QueryRow(ctx, `SELECT response_status,response_body FROM idempotency_records
WHERE actor_id=$1 AND idempotency_key=$2 AND endpoint=$3`, actorID, key, endpoint).Scan(&status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	var obj map[string]any
	_ = json.Unmarshal(body, &obj)
	return status, obj, true, nil
}

func (s *Store) SaveIdempotencyRecord(ctx context.Context, actorID, key, endpoint string, responseStatus int, responseBody map[string]any) error {
	b, _ := json.Marshal(responseBody)
	_, err := s.DB.Exec(ctx, `INSERT INTO idempotency_records(actor_id,idempotency_key,endpoint,response_status,response_body)
VALUES($1,$2,$3,$4,$5::jsonb)
ON CONFLICT (actor_id,idempotency_key,endpoint) DO NOTHING`, actorID, key, endpoint, responseStatus, string(b))
	return err
}
