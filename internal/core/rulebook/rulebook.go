// Package rulebook holds the closed table of per-type schemas, extraction
// rules and validators.
package rulebook

import (
	"regexp"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/core/anomaly"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Ruleset is everything the pipeline needs to process one document type.
type Ruleset struct {
	Type     constants.DocumentType
	Schema   []entity.FieldSpec
	Extract  []fields.FieldRule
	Validate []anomaly.Validator
}

var (
	reInvoiceNumber = regexp.MustCompile(`(?i)\bINV[-#]?\d[\w-]*`)
	reEmail         = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	rePhone         = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

func spec(name string, kind entity.FieldKind, required bool) entity.FieldSpec {
	return entity.FieldSpec{Name: name, Kind: kind, Required: required}
}

func field(s entity.FieldSpec, rules ...fields.Rule) fields.FieldRule {
	return fields.FieldRule{Spec: s, Rules: rules}
}

var rulesets = map[constants.DocumentType]func() Ruleset{
	constants.Invoice: invoice,
	constants.Resume:  resume,
	constants.Report:  report,
}

// For returns the ruleset of t. Unknown and unrecognized types get an empty
// ruleset, so nothing is extracted or validated for them.
func For(t constants.DocumentType) Ruleset {
	build, ok := rulesets[t]
	if !ok {
		return Ruleset{Type: constants.Unknown}
	}
	rs := build()
	rs.Schema = make([]entity.FieldSpec, len(rs.Extract))
	for i, fr := range rs.Extract {
		rs.Schema[i] = fr.Spec
	}
	return rs
}

func invoice() Ruleset {
	return Ruleset{
		Type: constants.Invoice,
		Extract: []fields.FieldRule{
			field(spec("invoice_number", entity.KindText, true),
				fields.Label("invoice number", "invoice no", "invoice #", "invoice id"),
				fields.Pattern(reInvoiceNumber)),
			field(spec("invoice_date", entity.KindDate, true),
				fields.Label("invoice date", "date of issue", "issue date", "date")),
			field(spec("due_date", entity.KindDate, false),
				fields.Label("due date", "payment due", "due")),
			field(spec("vendor_name", entity.KindText, true),
				fields.Label("vendor", "from", "seller", "supplier", "sold by"),
				fields.NamedEntity(fields.LabelOrg, 8)),
			field(spec("bill_to", entity.KindText, false),
				fields.Label("bill to", "billed to", "customer", "ship to")),
			field(spec("line_items", entity.KindList, false),
				fields.TableRows("|")),
			field(spec("subtotal", entity.KindCurrency, false),
				fields.Label("subtotal", "sub total", "sub-total")),
			field(spec("tax", entity.KindCurrency, false),
				fields.Label("tax", "sales tax", "vat", "gst")),
			field(spec("total_amount", entity.KindCurrency, true),
				fields.Label("total amount", "amount due", "grand total", "balance due", "total")),
		},
		Validate: []anomaly.Validator{
			anomaly.TotalsReconcile("subtotal", "tax", "total_amount"),
			anomaly.DateOrder("invoice_date", "due_date"),
			anomaly.LineItemsSum("line_items", "subtotal", "tax", "total_amount"),
		},
	}
}

func resume() Ruleset {
	return Ruleset{
		Type: constants.Resume,
		Extract: []fields.FieldRule{
			field(spec("name", entity.KindText, true),
				fields.Label("name", "full name"),
				fields.NamedEntity(fields.LabelPerson, 3),
				fields.FirstLine(3, fields.PersonName)),
			field(spec("email", entity.KindEmail, true),
				fields.Label("email", "e-mail", "mail"),
				fields.Pattern(reEmail)),
			field(spec("phone", entity.KindPhone, false),
				fields.Label("phone", "tel", "mobile", "telephone"),
				fields.Pattern(rePhone)),
			field(spec("education", entity.KindList, false),
				fields.Section(fields.SplitLines, "education", "academic background")),
			field(spec("experience", entity.KindList, false),
				fields.Section(fields.SplitLines, "experience", "work experience", "employment history", "professional experience")),
			field(spec("skills", entity.KindList, false),
				fields.Section(fields.SplitComma, "skills", "technical skills", "core skills"),
				fields.Label("skills")),
		},
		Validate: []anomaly.Validator{
			anomaly.EmailFormat("email"),
		},
	}
}

func report() Ruleset {
	return Ruleset{
		Type: constants.Report,
		Extract: []fields.FieldRule{
			field(spec("title", entity.KindText, true),
				fields.Label("title"),
				fields.Title(5),
				fields.FirstLine(1, fields.AnyText)),
			field(spec("author", entity.KindText, true),
				fields.Label("author", "authors", "prepared by", "by"),
				fields.NamedEntity(fields.LabelPerson, 6)),
			field(spec("date", entity.KindDate, false),
				fields.Label("date", "published", "dated")),
			field(spec("abstract", entity.KindText, false),
				fields.Section(fields.SplitLines, "abstract", "summary", "executive summary")),
			field(spec("keywords", entity.KindList, false),
				fields.Label("keywords", "key words")),
			field(spec("findings", entity.KindList, false),
				fields.Section(fields.SplitLines, "key findings", "findings", "results")),
		},
	}
}
