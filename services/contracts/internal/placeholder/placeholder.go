// Package placeholder builds the token -> string dictionary consumed by the
// document composer. Every token resolves through an ordered chain of
// sources (contract-stored value, contract-level override, live related
// entity, domain default) and the first non-empty source wins. A missing
// related entity never aborts the build: each dependent token degrades to an
// empty string.
package placeholder

import (
	"strconv"
	"time"

	"github.com/locagest/contratos/pkg/brdoc"
	"github.com/locagest/contratos/services/contracts/internal/model"
)

// Dictionary maps bare token names (without brackets) to resolved strings.
type Dictionary map[string]string

// source is one step of a resolver chain.
type source func() string

// resolve returns the first non-empty value in the chain, or "".
func resolve(chain ...source) string {
	for _, s := range chain {
		if v := s(); v != "" {
			return v
		}
	}
	return ""
}

func lit(v string) source { return func() string { return v } }

// Input carries the contract and its related records. Any pointer may be nil.
type Input struct {
	Contract *model.Contract
	Property *model.Property
	Tenant   *model.Person
	Owner    *model.Person
	Agency   *model.Agency
	Now      time.Time
}

// Build produces the complete dictionary for one contract. It is a pure
// projection: no lookups, no side effects.
func Build(in Input) Dictionary {
	d := Dictionary{}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	d["DATA_ATUAL"] = brdoc.FormatDate(now)
	d["DATA_ATUAL_EXTENSO"] = brdoc.FormatDateExtensive(now)

	buildParty(d, "LOCADOR", in.Owner)
	buildParty(d, "LOCATARIO", in.Tenant)
	buildAgency(d, in)
	buildProperty(d, in.Property)
	buildTerms(d, in.Contract)

	return d
}

func buildParty(d Dictionary, suffix string, p *model.Person) {
	get := personField(p)
	d["NOME_"+suffix] = get(func(p *model.Person) string { return p.Name })
	d["CPF_"+suffix] = brdoc.MaskDocument(get(func(p *model.Person) string { return p.Document }))
	d["NACIONALIDADE_"+suffix] = resolve(
		lit(get(func(p *model.Person) string { return p.Nationality })),
		lit(nationalityDefault(p)),
	)
	d["ESTADO_CIVIL_"+suffix] = get(func(p *model.Person) string { return p.MaritalStatus })
	d["PROFISSAO_"+suffix] = get(func(p *model.Person) string { return p.Occupation })
	d["ENDERECO_"+suffix] = get(func(p *model.Person) string { return p.Address })
	d["EMAIL_"+suffix] = get(func(p *model.Person) string { return p.Email })
	d["TELEFONE_"+suffix] = get(func(p *model.Person) string { return p.Phone })
}

// nationalityDefault applies only when the party record exists; an entirely
// absent party renders empty, not defaulted.
func nationalityDefault(p *model.Person) string {
	if p == nil {
		return ""
	}
	return brdoc.DefaultNationality
}

func personField(p *model.Person) func(func(*model.Person) string) string {
	return func(get func(*model.Person) string) string {
		if p == nil {
			return ""
		}
		return get(p)
	}
}

func buildAgency(d Dictionary, in Input) {
	var name, cnpj, creciLive, addr source = lit(""), lit(""), lit(""), lit("")
	if in.Agency != nil {
		a := in.Agency
		name = lit(a.Name)
		cnpj = func() string { return brdoc.MaskDocument(a.CNPJ) }
		creciLive = lit(a.CRECI)
		addr = lit(a.Address)
	}
	var creciOverride source = lit("")
	if in.Contract != nil {
		creciOverride = lit(in.Contract.CRECIOverride)
	}
	d["NOME_IMOBILIARIA"] = resolve(name)
	d["CNPJ_IMOBILIARIA"] = resolve(cnpj)
	// Contract-level CRECI override wins over the agency profile.
	d["CRECI_IMOBILIARIA"] = resolve(creciOverride, creciLive)
	d["ENDERECO_IMOBILIARIA"] = resolve(addr)
}

var propertyKinds = map[string]string{
	"RES": "residencial",
	"COM": "comercial",
}

func buildProperty(d Dictionary, p *model.Property) {
	if p == nil {
		for _, k := range []string{"ENDERECO_IMOVEL", "CIDADE_IMOVEL", "ESTADO_IMOVEL", "CEP_IMOVEL", "MATRICULA_IMOVEL", "TIPO_IMOVEL"} {
			d[k] = ""
		}
		return
	}
	d["ENDERECO_IMOVEL"] = p.Address
	d["CIDADE_IMOVEL"] = p.City
	d["ESTADO_IMOVEL"] = p.State
	d["CEP_IMOVEL"] = p.CEP
	d["MATRICULA_IMOVEL"] = p.Registration
	kind := p.Kind
	if label, ok := propertyKinds[kind]; ok {
		kind = label
	}
	d["TIPO_IMOVEL"] = kind
}

func buildTerms(d Dictionary, c *model.Contract) {
	if c == nil {
		d["VALOR_ALUGUEL"] = brdoc.ZeroCurrency
		d["VALOR_CAUCAO"] = brdoc.ZeroCurrency
		for _, k := range []string{"DIA_VENCIMENTO", "DATA_INICIO", "DATA_FIM", "DATA_INICIO_EXTENSO", "DATA_FIM_EXTENSO", "PRAZO_MESES", "INDICE_REAJUSTE", "TIPO_GARANTIA", "CLAUSULA_PENAL", "TOKEN_CONTRATO"} {
			d[k] = ""
		}
		return
	}

	d["VALOR_ALUGUEL"] = currency(c.RentCents)
	d["VALOR_CAUCAO"] = currency(c.DepositCents)
	if c.DueDay > 0 {
		d["DIA_VENCIMENTO"] = strconv.Itoa(c.DueDay)
	} else {
		d["DIA_VENCIMENTO"] = ""
	}

	d["DATA_INICIO"] = dateOrEmpty(c.StartDate, brdoc.FormatDate)
	d["DATA_FIM"] = dateOrEmpty(c.EndDate, brdoc.FormatDate)
	d["DATA_INICIO_EXTENSO"] = dateOrEmpty(c.StartDate, brdoc.FormatDateExtensive)
	d["DATA_FIM_EXTENSO"] = dateOrEmpty(c.EndDate, brdoc.FormatDateExtensive)

	if !c.StartDate.IsZero() && !c.EndDate.IsZero() {
		// Not clamped: an inverted range renders a negative month count.
		d["PRAZO_MESES"] = strconv.Itoa(brdoc.TermMonths(c.StartDate, c.EndDate))
	} else {
		d["PRAZO_MESES"] = ""
	}

	d["INDICE_REAJUSTE"] = resolve(
		func() string { return brdoc.ReadjustmentLabel(c.ReadjustmentIndex) },
	)
	d["TIPO_GARANTIA"] = resolve(
		func() string { return brdoc.GuaranteeLabel(c.GuaranteeType) },
	)
	d["CLAUSULA_PENAL"] = c.PenaltyClause
	d["TOKEN_CONTRATO"] = c.Token
}

// currency renders unset values as the 0,00 default rather than empty.
func currency(cents int64) string {
	if cents == 0 {
		return brdoc.ZeroCurrency
	}
	return brdoc.FormatCurrency(cents)
}

func dateOrEmpty(t time.Time, format func(time.Time) string) string {
	if t.IsZero() {
		return ""
	}
	return format(t)
}
