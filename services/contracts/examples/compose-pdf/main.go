package main

import (
	"context"
	"fmt"
	"os"

	"github.com/locagest/contratos/pkg/token"
	"github.com/locagest/contratos/services/contracts/internal/export"
	"github.com/locagest/contratos/services/contracts/internal/paginate"
	"github.com/locagest/contratos/services/contracts/internal/placeholder"
	"github.com/locagest/contratos/services/contracts/internal/render"
)

const template = `CONTRATO DE LOCAÇÃO RESIDENCIAL

LOCADOR: [NOME_LOCADOR], portador do CPF [CPF_LOCADOR].
LOCATÁRIO: [NOME_LOCATARIO], portador do CPF [CPF_LOCATARIO].

Aluguel mensal: R$ [VALOR_ALUGUEL], vencível todo dia [DIA_VENCIMENTO].
Documento verificável pelo código [TOKEN_CONTRATO].
`

func main() {
	tok := token.New("CTR", "RES", 2026)
	dict := placeholder.Dictionary{
		"NOME_LOCADOR":   "Maria Silva",
		"CPF_LOCADOR":    "987.654.321-00",
		"NOME_LOCATARIO": "João Pereira",
		"CPF_LOCATARIO":  "123.456.789-01",
		"VALOR_ALUGUEL":  "1.500,00",
		"DIA_VENCIMENTO": "5",
		"TOKEN_CONTRATO": tok,
	}
	content := render.NormalizeText(render.Compose(template, dict))

	engine, err := paginate.NewEngine(paginate.A4Layout())
	if err != nil {
		panic(err)
	}
	doc, err := engine.Paginate(context.Background(), content, tok)
	if err != nil {
		panic(err)
	}

	f, err := os.Create("contrato.pdf")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := export.PDF(context.Background(), doc, "https://contratos.locagest.com.br/verify/"+tok, f); err != nil {
		panic(err)
	}
	fmt.Println("wrote contrato.pdf:", doc.Plan.Pages(), "pages, hash", render.HashContent(content))
}
