// contratoctl is the offline companion tool: it composes a contract document
// from a template file plus a placeholder dictionary, inspects the pagination
// plan, and exports a PDF, all without a running service or database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/locagest/contratos/services/contracts/internal/export"
	"github.com/locagest/contratos/services/contracts/internal/paginate"
	"github.com/locagest/contratos/services/contracts/internal/placeholder"
	"github.com/locagest/contratos/services/contracts/internal/render"
)

const usage = "usage: contratoctl doc compose --template <path> --dict <path> [--out <path>] | contratoctl doc plan --template <path> [--dict <path>] | contratoctl doc pdf --template <path> [--dict <path>] --out <path> [--token <contract_token>]"

func main() {
	if len(os.Args) < 2 {
		failSummary("", usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "doc":
		runDoc(os.Args[2:])
	default:
		failSummary("", "unknown command")
		os.Exit(2)
	}
}

func runDoc(args []string) {
	if len(args) < 1 {
		failSummary("", usage)
		os.Exit(2)
	}
	switch args[0] {
	case "compose":
		runDocCompose(args[1:])
	case "plan":
		runDocPlan(args[1:])
	case "pdf":
		runDocPDF(args[1:])
	default:
		failSummary("", usage)
		os.Exit(2)
	}
}

// composeFromFlags loads the template and optional dictionary files and
// returns the normalized composed text.
func composeFromFlags(templatePath, dictPath string) (string, error) {
	tpl, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("read template failed: %w", err)
	}
	dict := placeholder.Dictionary{}
	if strings.TrimSpace(dictPath) != "" {
		b, err := os.ReadFile(dictPath)
		if err != nil {
			return "", fmt.Errorf("read dictionary failed: %w", err)
		}
		if err := json.Unmarshal(b, &dict); err != nil {
			return "", fmt.Errorf("parse dictionary failed: %w", err)
		}
	}
	return render.NormalizeText(render.Compose(string(tpl), dict)), nil
}

func runDocCompose(args []string) {
	fs := flag.NewFlagSet("doc compose", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	templatePath := fs.String("template", "", "path to template text file")
	dictPath := fs.String("dict", "", "path to placeholder dictionary json (token -> value)")
	outPath := fs.String("out", "", "path to write composed text (stdout when omitted)")
	if err := fs.Parse(args); err != nil {
		failSummary("", err.Error())
		os.Exit(2)
	}
	if strings.TrimSpace(*templatePath) == "" {
		failSummary("", "--template is required")
		os.Exit(2)
	}

	content, err := composeFromFlags(*templatePath, *dictPath)
	if err != nil {
		failSummary("", err.Error())
		os.Exit(1)
	}
	hash := render.HashContent(content)
	if strings.TrimSpace(*outPath) == "" {
		fmt.Println(content)
	} else if err := os.WriteFile(*outPath, []byte(content), 0o644); err != nil {
		failSummary(hash, "write composed text failed: "+err.Error())
		os.Exit(1)
	}
	passSummary(hash, map[string]any{"out_path": strings.TrimSpace(*outPath)})
}

func runDocPlan(args []string) {
	fs := flag.NewFlagSet("doc plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	templatePath := fs.String("template", "", "path to template text file")
	dictPath := fs.String("dict", "", "path to placeholder dictionary json")
	if err := fs.Parse(args); err != nil {
		failSummary("", err.Error())
		os.Exit(2)
	}
	if strings.TrimSpace(*templatePath) == "" {
		failSummary("", "--template is required")
		os.Exit(2)
	}

	content, err := composeFromFlags(*templatePath, *dictPath)
	if err != nil {
		failSummary("", err.Error())
		os.Exit(1)
	}
	engine, err := paginate.NewEngine(paginate.A4Layout())
	if err != nil {
		failSummary("", err.Error())
		os.Exit(1)
	}
	plan, total, err := engine.Plan(content)
	if err != nil {
		failSummary(render.HashContent(content), err.Error())
		os.Exit(1)
	}
	passSummary(render.HashContent(content), map[string]any{
		"pages":        plan.Pages(),
		"offsets":      plan.Offsets,
		"hard_breaks":  plan.HardBreaks,
		"total_height": total,
	})
}

func runDocPDF(args []string) {
	fs := flag.NewFlagSet("doc pdf", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	templatePath := fs.String("template", "", "path to template text file")
	dictPath := fs.String("dict", "", "path to placeholder dictionary json")
	outPath := fs.String("out", "", "path to write the pdf")
	contractToken := fs.String("token", "", "contract token printed in the side margin")
	verifyBase := fs.String("verify-base", "https://contratos.locagest.com.br/verify", "verification url base for the qr code")
	if err := fs.Parse(args); err != nil {
		failSummary("", err.Error())
		os.Exit(2)
	}
	if strings.TrimSpace(*templatePath) == "" || strings.TrimSpace(*outPath) == "" {
		failSummary("", "both --template and --out are required")
		os.Exit(2)
	}

	content, err := composeFromFlags(*templatePath, *dictPath)
	if err != nil {
		failSummary("", err.Error())
		os.Exit(1)
	}
	hash := render.HashContent(content)

	engine, err := paginate.NewEngine(paginate.A4Layout())
	if err != nil {
		failSummary(hash, err.Error())
		os.Exit(1)
	}
	doc, err := engine.Paginate(context.Background(), content, strings.TrimSpace(*contractToken))
	if err != nil {
		failSummary(hash, err.Error())
		os.Exit(1)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		failSummary(hash, "create pdf failed: "+err.Error())
		os.Exit(1)
	}
	verifyURL := ""
	if tok := strings.TrimSpace(*contractToken); tok != "" {
		verifyURL = strings.TrimRight(*verifyBase, "/") + "/" + tok
	}
	if err := export.PDF(context.Background(), doc, verifyURL, f); err != nil {
		f.Close()
		failSummary(hash, err.Error())
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		failSummary(hash, "write pdf failed: "+err.Error())
		os.Exit(1)
	}
	passSummary(hash, map[string]any{
		"pages":    doc.Plan.Pages(),
		"out_path": strings.TrimSpace(*outPath),
	})
}

func passSummary(contentHash string, extra map[string]any) {
	writeSummary("PASS", contentHash, "", extra)
}

func failSummary(contentHash, reason string) {
	writeSummary("FAIL", contentHash, reason, nil)
}

func writeSummary(status, contentHash, reason string, extra map[string]any) {
	out := map[string]any{
		"tool":          "contratoctl",
		"status":        status,
		"content_hash":  contentHash,
		"timestamp_utc": time.Now().UTC().Format(time.RFC3339),
	}
	if reason != "" {
		out["reason"] = reason
	}
	for k, v := range extra {
		out[k] = v
	}
	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}
