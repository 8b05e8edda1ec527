package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/locagest/contratos/pkg/db"
	"github.com/locagest/contratos/pkg/httpx"
	"github.com/locagest/contratos/pkg/logger"
	"github.com/locagest/contratos/pkg/marker"
	"github.com/locagest/contratos/pkg/metrics"
	"github.com/locagest/contratos/pkg/token"
	"github.com/locagest/contratos/pkg/workflow"
	"github.com/locagest/contratos/services/contracts/internal/config"
	"github.com/locagest/contratos/services/contracts/internal/export"
	"github.com/locagest/contratos/services/contracts/internal/idempotency"
	"github.com/locagest/contratos/services/contracts/internal/model"
	"github.com/locagest/contratos/services/contracts/internal/paginate"
	"github.com/locagest/contratos/services/contracts/internal/render"
	"github.com/locagest/contratos/services/contracts/internal/store"
)

type actorContext struct {
	ActorID        string `json:"actor_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (a actorContext) idem() idempotency.Actor {
	return idempotency.Actor{ActorID: a.ActorID, IdempotencyKey: a.IdempotencyKey}
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, ServiceName: "contracts"})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connect", zap.Error(err))
	}
	st := store.New(pool)

	m := metrics.New(prometheus.DefaultRegisterer)

	engine, err := paginate.NewEngine(paginate.A4Layout())
	if err != nil {
		log.Fatal("pagination engine", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Post("/contracts/dev/seed", func(w http.ResponseWriter, r *http.Request) {
		ids, err := st.SeedDemo(r.Context())
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "seeded": ids})
	})

	r.Get("/templates", func(w http.ResponseWriter, r *http.Request) {
		templates, err := st.ListTemplates(r.Context())
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "templates": templates})
	})

	r.Post("/templates", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name             string   `json:"name"`
			Content          string   `json:"content"`
			AllowedUserTypes []string `json:"allowed_user_types"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		if req.Name == "" || req.Content == "" {
			httpx.WriteError(w, 422, "MISSING_FIELDS", "name and content are required", nil)
			return
		}
		t := model.Template{
			ID:               "tpl_" + uuid.NewString(),
			Name:             req.Name,
			Content:          req.Content,
			AllowedUserTypes: req.AllowedUserTypes,
		}
		if err := st.CreateTemplate(r.Context(), t); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{"request_id": httpx.NewRequestID(), "template": t})
	})

	r.Get("/templates/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTemplate(r.Context(), chi.URLParam(r, "template_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "template": t})
	})

	r.Post("/contracts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ActorContext actorContext      `json:"actor_context"`
			TemplateID   string            `json:"template_id"`
			PropertyID   string            `json:"property_id"`
			TenantID     string            `json:"tenant_id"`
			AgencyID     string            `json:"agency_id"`
			Terms        store.TermsUpdate `json:"terms"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		if status, body, found, err := idempotency.Replay(r.Context(), st, req.ActorContext.idem(), "create_contract"); err == nil && found {
			httpx.WriteJSON(w, status, body)
			return
		}

		kind := "RES"
		if property, err := st.GetProperty(r.Context(), req.PropertyID); err == nil && property.Kind != "" {
			kind = property.Kind
		}
		c := model.Contract{
			ID:                "ctr_" + uuid.NewString(),
			Token:             token.New(cfg.TokenPrefix, kind, time.Now().Year()),
			TemplateID:        req.TemplateID,
			PropertyID:        req.PropertyID,
			TenantID:          req.TenantID,
			AgencyID:          req.AgencyID,
			Status:            workflow.StatusPendente,
			RentCents:         req.Terms.RentCents,
			DepositCents:      req.Terms.DepositCents,
			DueDay:            req.Terms.DueDay,
			StartDate:         req.Terms.StartDate,
			EndDate:           req.Terms.EndDate,
			ReadjustmentIndex: req.Terms.ReadjustmentIndex,
			GuaranteeType:     req.Terms.GuaranteeType,
			PenaltyClause:     req.Terms.PenaltyClause,
			CRECIOverride:     req.Terms.CRECIOverride,
		}
		if err := st.CreateContract(r.Context(), c); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		_ = st.AddEvent(r.Context(), c.ID, "CREATED", req.ActorContext.ActorID, map[string]any{"token": c.Token})
		body := map[string]any{"request_id": httpx.NewRequestID(), "contract_id": c.ID, "token": c.Token, "status": c.Status}
		_ = idempotency.Save(r.Context(), st, req.ActorContext.idem(), "create_contract", 201, body)
		httpx.WriteJSON(w, 201, body)
	})

	r.Get("/contracts/{contract_id}", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		sigs, err := st.ListSignatures(r.Context(), c.ID)
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"contract":   c,
			"signatures": signatureSummary(sigs),
		})
	})

	r.Patch("/contracts/{contract_id}", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !c.Status.CanEditTerms() {
			httpx.WriteError(w, 409, workflow.CodeInvalidState, "terms are frozen outside PENDENTE", nil)
			return
		}
		// Absent fields keep their current values.
		req := struct {
			ActorContext actorContext      `json:"actor_context"`
			Terms        store.TermsUpdate `json:"terms"`
		}{Terms: store.TermsUpdate{
			RentCents: c.RentCents, DepositCents: c.DepositCents, DueDay: c.DueDay,
			StartDate: c.StartDate, EndDate: c.EndDate,
			ReadjustmentIndex: c.ReadjustmentIndex, GuaranteeType: c.GuaranteeType,
			PenaltyClause: c.PenaltyClause, CRECIOverride: c.CRECIOverride,
			PropertyID: c.PropertyID,
		}}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		if err := st.UpdateTerms(r.Context(), c.ID, req.Terms); err != nil {
			writeStoreError(w, err)
			return
		}
		_ = st.AddEvent(r.Context(), c.ID, "TERMS_UPDATED", req.ActorContext.ActorID, nil)
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "contract_id": c.ID, "updated": true})
	})

	r.Get("/contracts/{contract_id}/document", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		content, err := composedContent(r.Context(), st, c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		m.DocumentsComposed.Inc()
		resp := map[string]any{
			"request_id":   httpx.NewRequestID(),
			"contract_id":  c.ID,
			"frozen":       c.HasSnapshot(),
			"content_hash": render.HashContent(content),
		}
		if r.URL.Query().Get("format") == "html" {
			html, err := render.ToHTML(content)
			if err != nil {
				httpx.WriteError(w, 500, "RENDER_ERROR", err.Error(), nil)
				return
			}
			resp["content_html"] = html
		} else {
			resp["content"] = content
		}
		httpx.WriteJSON(w, 200, resp)
	})

	r.Get("/contracts/{contract_id}/document/plan", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		content, err := composedContent(r.Context(), st, c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		plan, total, err := engine.Plan(content)
		if err != nil {
			writeCaptureError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":   httpx.NewRequestID(),
			"contract_id":  c.ID,
			"offsets":      plan.Offsets,
			"pages":        plan.Pages(),
			"hard_breaks":  plan.HardBreaks,
			"total_height": total,
		})
	})

	r.Get("/contracts/{contract_id}/document/pdf", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		content, err := composedContent(r.Context(), st, c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		start := time.Now()
		doc, err := engine.Paginate(r.Context(), content, c.Token)
		if err != nil {
			m.ExportsTotal.WithLabelValues("capture_failed").Inc()
			writeCaptureError(w, err)
			return
		}
		m.PaginationDuration.Observe(time.Since(start).Seconds())
		m.PagesProduced.Add(float64(doc.Plan.Pages()))
		m.HardBreaksTotal.Add(float64(doc.Plan.HardBreaks))

		var buf bytes.Buffer
		if err := export.PDF(r.Context(), doc, cfg.VerifyBaseURL+"/"+c.Token, &buf); err != nil {
			m.ExportsTotal.WithLabelValues("aborted").Inc()
			writeCaptureError(w, err)
			return
		}
		m.ExportsTotal.WithLabelValues("ok").Inc()
		w.Header().Set("content-type", "application/pdf")
		w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=contrato-%s.pdf", c.Token))
		_, _ = w.Write(buf.Bytes())
	})

	r.Post("/contracts/{contract_id}:prepare", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ActorContext actorContext `json:"actor_context"`
		}
		_ = httpx.ReadJSON(r, &req)
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if _, rej := workflow.Prepare(c.Status); rej != nil {
			httpx.WriteRejection(w, rej)
			return
		}
		content, err := composedContent(r.Context(), st, c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if err := st.FreezeSnapshot(r.Context(), c.ID, content); err != nil {
			writeStoreError(w, err)
			return
		}
		_ = st.AddEvent(r.Context(), c.ID, "PREPARED", req.ActorContext.ActorID, map[string]any{
			"content_hash": render.HashContent(content),
		})
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":   httpx.NewRequestID(),
			"contract_id":  c.ID,
			"status":       workflow.StatusAguardandoAssinaturas,
			"content_hash": render.HashContent(content),
		})
	})

	r.Post("/contracts/{contract_id}:sign", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ActorContext   actorContext          `json:"actor_context"`
			SignatureImage string                `json:"signature_image"`
			GeoConsent     bool                  `json:"geo_consent"`
			GeoSupported   bool                  `json:"geo_supported"`
			Geolocation    *workflow.Geolocation `json:"geolocation"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		if status, body, found, err := idempotency.Replay(r.Context(), st, req.ActorContext.idem(), "sign"); err == nil && found {
			httpx.WriteJSON(w, status, body)
			return
		}

		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		party, ok := partyFor(r.Context(), st, c, req.ActorContext.ActorID)
		if !ok {
			httpx.WriteError(w, 403, workflow.CodeUnknownParty, "actor is not a party to this contract", nil)
			return
		}

		capture := workflow.Capture{
			Party:        party,
			Image:        req.SignatureImage,
			IP:           clientIP(r),
			GeoConsent:   req.GeoConsent,
			GeoSupported: req.GeoSupported,
			Geo:          req.Geolocation,
		}
		// Local preconditions first: nothing reaches the store when these
		// fail.
		if rej := workflow.ValidateCapture(capture); rej != nil {
			m.SignatureRejected.WithLabelValues(rej.Code).Inc()
			httpx.WriteRejection(w, rej)
			return
		}
		sigs, err := st.ListSignatures(r.Context(), c.ID)
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		if ok, rej := workflow.CanSign(c.Status, party, workflow.SignedSet(sigs)); !ok {
			m.SignatureRejected.WithLabelValues(rej.Code).Inc()
			httpx.WriteRejection(w, rej)
			return
		}

		sig := workflow.Signature{
			Party:    party,
			Image:    capture.Image,
			SignedAt: time.Now().UTC(),
			IP:       capture.IP,
			Geo:      capture.GeoToRecord(),
		}
		if err := st.InsertSignature(r.Context(), c.ID, sig); err != nil {
			writeStoreError(w, err)
			return
		}
		m.SignaturesRecorded.WithLabelValues(string(party)).Inc()
		_ = st.AddEvent(r.Context(), c.ID, "SIGNED", req.ActorContext.ActorID, map[string]any{
			"party": party, "geolocated": sig.Geo != nil,
		})

		status := c.Status
		signed := workflow.SignedSet(sigs)
		signed[party] = true
		if signed[workflow.PartyTenant] && signed[workflow.PartyOwner] && signed[workflow.PartyAgency] {
			if err := st.SetStatus(r.Context(), c.ID, workflow.StatusAguardandoAssinaturas, workflow.StatusAtivo); err == nil {
				status = workflow.StatusAtivo
				_ = st.AddEvent(r.Context(), c.ID, "ACTIVATED", "SYSTEM", nil)
			}
		}

		body := map[string]any{
			"request_id":  httpx.NewRequestID(),
			"contract_id": c.ID,
			"party":       party,
			"status":      status,
			"geolocated":  sig.Geo != nil,
		}
		_ = idempotency.Save(r.Context(), st, req.ActorContext.idem(), "sign", 201, body)
		httpx.WriteJSON(w, 201, body)
	})

	r.Post("/contracts/{contract_id}:revoke", transitionHandler(st, workflow.Revoke, workflow.StatusRevogado, "REVOKED"))
	r.Post("/contracts/{contract_id}:close", transitionHandler(st, workflow.Close, workflow.StatusEncerrado, "CLOSED"))

	r.Get("/contracts/{contract_id}/events", func(w http.ResponseWriter, r *http.Request) {
		evs, err := st.ListEvents(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "events": evs})
	})

	r.Get("/verify/{token}", func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetContractByToken(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		content, err := composedContent(r.Context(), st, c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		sigs, err := st.ListSignatures(r.Context(), c.ID)
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":   httpx.NewRequestID(),
			"token":        c.Token,
			"status":       c.Status,
			"frozen":       c.HasSnapshot(),
			"content_hash": render.HashContent(content),
			"signatures":   signatureSummary(sigs),
		})
	})

	r.Get("/verify/{token}/qr", func(w http.ResponseWriter, r *http.Request) {
		tok := chi.URLParam(r, "token")
		if !token.Valid(tok) {
			httpx.WriteError(w, 404, "NOT_FOUND", "unknown token", nil)
			return
		}
		if _, err := st.GetContractByToken(r.Context(), tok); err != nil {
			writeStoreError(w, err)
			return
		}
		img, err := marker.QR(cfg.VerifyBaseURL+"/"+tok, 320)
		if err != nil {
			httpx.WriteError(w, 500, "RENDER_ERROR", err.Error(), nil)
			return
		}
		w.Header().Set("content-type", "image/png")
		_ = png.Encode(w, img)
	})

	log.Info("listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func transitionHandler(st *store.Store, transition func(workflow.Status) (workflow.Status, *workflow.Rejection), to workflow.Status, event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ActorContext actorContext `json:"actor_context"`
		}
		_ = httpx.ReadJSON(r, &req)
		c, err := st.GetContract(r.Context(), chi.URLParam(r, "contract_id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if _, rej := transition(c.Status); rej != nil {
			httpx.WriteRejection(w, rej)
			return
		}
		if err := st.SetStatus(r.Context(), c.ID, c.Status, to); err != nil {
			writeStoreError(w, err)
			return
		}
		_ = st.AddEvent(r.Context(), c.ID, event, req.ActorContext.ActorID, nil)
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "contract_id": c.ID, "status": to})
	}
}

// writeStoreError maps store errors: missing rows are 404, lost races are a
// distinct 409 telling the client to refresh, anything else is a 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, 404, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, store.ErrStateChanged):
		httpx.WriteError(w, 409, "STATE_CHANGED", err.Error(), nil)
	case errors.Is(err, store.ErrAlreadySigned):
		httpx.WriteError(w, 409, "STATE_CHANGED", err.Error(), nil)
	default:
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
	}
}

// writeCaptureError distinguishes the recoverable raster failure, which the
// client may retry, from cancellation.
func writeCaptureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	case errors.Is(err, paginate.ErrCapture):
		httpx.WriteError(w, 503, "CAPTURE_FAILED", err.Error(), map[string]any{"retryable": true})
	default:
		httpx.WriteError(w, 500, "RENDER_ERROR", err.Error(), nil)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
