package store

import "context"

// SeedDemo inserts a demo agency, owner, tenant, property and template for
// smoke tests. Idempotent: rerunning keeps the same fixture ids.
func (s *Store) SeedDemo(ctx context.Context) (map[string]string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := map[string]string{
		"agency_id":   "agc_demo",
		"owner_id":    "own_demo",
		"tenant_id":   "ten_demo",
		"property_id": "prp_demo",
		"template_id": "tpl_locacao_res_v1",
	}

	_, _ = tx.Exec(ctx, `INSERT INTO agencies(id,name,cnpj,creci,address,email,phone)
VALUES('agc_demo','Locagest Imóveis','12345678000199','CRECI/SP 22.222-J','Rua Augusta, 500, São Paulo/SP','contato@locagest.com.br','+55 11 4000-0000')
ON CONFLICT (id) DO NOTHING`)

	_, _ = tx.Exec(ctx, `INSERT INTO owners(id,name,document,nationality,marital_status,occupation,email,phone,address)
VALUES('own_demo','Maria Silva','98765432100','','casada','empresária','maria@example.com','','Rua das Flores, 45, São Paulo/SP')
ON CONFLICT (id) DO NOTHING`)

	_, _ = tx.Exec(ctx, `INSERT INTO tenants(id,name,document,nationality,marital_status,occupation,email,phone,address)
VALUES('ten_demo','João Pereira','12345678901','','solteiro','engenheiro','joao@example.com','','Av. Paulista, 1000, São Paulo/SP')
ON CONFLICT (id) DO NOTHING`)

	_, _ = tx.Exec(ctx, `INSERT INTO properties(id,owner_id,agency_id,kind,address,city,state,cep,registration)
VALUES('prp_demo','own_demo','agc_demo','RES','Rua das Laranjeiras, 120, ap 32','São Paulo','SP','01310-100','98.765')
ON CONFLICT (id) DO NOTHING`)

	_, _ = tx.Exec(ctx, `INSERT INTO templates(id,name,content,allowed_user_types)
VALUES('tpl_locacao_res_v1','Locação residencial v1',
'CONTRATO DE LOCAÇÃO RESIDENCIAL

LOCADOR: [NOME_LOCADOR], [NACIONALIDADE_LOCADOR], [ESTADO_CIVIL_LOCADOR], portador do CPF [CPF_LOCADOR].
LOCATÁRIO: [NOME_LOCATARIO], [NACIONALIDADE_LOCATARIO], [ESTADO_CIVIL_LOCATARIO], portador do CPF [CPF_LOCATARIO].
INTERVENIENTE: [NOME_IMOBILIARIA], CNPJ [CNPJ_IMOBILIARIA], [CRECI_IMOBILIARIA].

Objeto: imóvel [TIPO_IMOVEL] situado em [ENDERECO_IMOVEL], [CIDADE_IMOVEL]/[ESTADO_IMOVEL], CEP [CEP_IMOVEL], matrícula [MATRICULA_IMOVEL].

Aluguel mensal: R$ [VALOR_ALUGUEL], vencível todo dia [DIA_VENCIMENTO].
Caução: R$ [VALOR_CAUCAO]. Garantia: [TIPO_GARANTIA].
Prazo: [PRAZO_MESES] meses, de [DATA_INICIO_EXTENSO] a [DATA_FIM_EXTENSO].
Reajuste anual pelo índice [INDICE_REAJUSTE]. Cláusula penal: [CLAUSULA_PENAL].

Documento verificável pelo código [TOKEN_CONTRATO].
',
'{TENANT,OWNER,AGENCY}')
ON CONFLICT (id) DO NOTHING`)

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}
