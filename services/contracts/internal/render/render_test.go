package render

import (
	"strings"
	"testing"

	"github.com/locagest/contratos/services/contracts/internal/placeholder"
)

func TestComposeScenario(t *testing.T) {
	tpl := "Locador: [NOME_LOCADOR], Aluguel: R$[VALOR_ALUGUEL]"
	dict := placeholder.Dictionary{"NOME_LOCADOR": "Maria Silva", "VALOR_ALUGUEL": "1.500,00"}
	got := Compose(tpl, dict)
	want := "Locador: Maria Silva, Aluguel: R$1.500,00"
	if got != want {
		t.Fatalf("compose: %q want %q", got, want)
	}
}

func TestComposeGlobalReplacement(t *testing.T) {
	tpl := "[NOME_LOCADOR] e [NOME_LOCADOR] novamente"
	got := Compose(tpl, placeholder.Dictionary{"NOME_LOCADOR": "Maria"})
	if got != "Maria e Maria novamente" {
		t.Fatalf("all occurrences must be replaced: %q", got)
	}
}

func TestComposeUnresolvedTokensBecomeEmpty(t *testing.T) {
	got := Compose("Fiador: [NOME_FIADOR].", placeholder.Dictionary{})
	if got != "Fiador: ." {
		t.Fatalf("unresolved token should become empty: %q", got)
	}
}

func TestComposeDoesNotRescanSubstitutedOutput(t *testing.T) {
	// A resolved value that itself looks like a token must not be
	// re-processed.
	dict := placeholder.Dictionary{
		"CLAUSULA_PENAL": "ver [VALOR_ALUGUEL]",
		"VALOR_ALUGUEL":  "1.500,00",
	}
	got := Compose("Multa: [CLAUSULA_PENAL]", dict)
	if got != "Multa: ver [VALOR_ALUGUEL]" {
		t.Fatalf("substituted output was re-scanned: %q", got)
	}
}

func TestComposeDeterministicAndIdempotentOnLiterals(t *testing.T) {
	tpl := "Contrato de locação.\nLocador: [NOME_LOCADOR].\n"
	dict := placeholder.Dictionary{"NOME_LOCADOR": "Maria Silva"}
	first := Compose(tpl, dict)
	if second := Compose(tpl, dict); second != first {
		t.Fatal("compose must be deterministic")
	}
	// Re-applying compose to output containing no tokens is a no-op.
	if again := Compose(first, dict); again != first {
		t.Fatalf("re-compose over literal text changed output: %q", again)
	}
}

func TestComposeLeavesNonTokenBracketsAlone(t *testing.T) {
	tpl := "inciso [ii] do artigo [ART_5]"
	got := Compose(tpl, placeholder.Dictionary{"ART_5": "5º"})
	if got != "inciso [ii] do artigo 5º" {
		t.Fatalf("lowercase bracket text is not a token: %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	in := "a  \r\nb\t\r\n\r\n"
	if got := NormalizeText(in); got != "a\nb\n" {
		t.Fatalf("normalize: %q", got)
	}
}

func TestHashContentStable(t *testing.T) {
	a := HashContent("conteúdo")
	b := HashContent("conteúdo")
	if a != b || len(a) != 64 {
		t.Fatalf("hash should be stable 64-char hex: %q %q", a, b)
	}
	if HashContent("outro") == a {
		t.Fatal("different content should hash differently")
	}
}

func TestToHTML(t *testing.T) {
	out, err := ToHTML("# Contrato\n\nLocador: **Maria**\n")
	if err != nil {
		t.Fatalf("to html: %v", err)
	}
	if !strings.Contains(out, "<h1>Contrato</h1>") || !strings.Contains(out, "<strong>Maria</strong>") {
		t.Fatalf("unexpected html: %q", out)
	}
}
