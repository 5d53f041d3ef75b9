// Package fixtures reproduces the canonical sample documents as word boxes
// and rendered pixels so the pipeline can run without a real OCR engine.
package fixtures

import (
	"strings"

	"github.com/joseph-ayodele/docsense/constants"
)

const (
	glyphWidth  = 7
	glyphHeight = 13
	pageWidth   = 800
	pageHeight  = 1000
	wrapColumns = 100
)

// Line is one run of text drawn at (X, Y). Scale 2 doubles glyph size.
type Line struct {
	X, Y  int
	Text  string
	Scale int
}

// Document is a synthetic single-page document.
type Document struct {
	Name   string
	Type   constants.DocumentType
	Width  int
	Height int
	Lines  []Line
}

type page struct {
	doc Document
	y   int
}

func newPage(name string, t constants.DocumentType) *page {
	return &page{doc: Document{Name: name, Type: t, Width: pageWidth, Height: pageHeight}, y: 50}
}

func (p *page) text(x int, s string, scale int, advance int) {
	p.doc.Lines = append(p.doc.Lines, Line{X: x, Y: p.y, Text: s, Scale: scale})
	p.y += advance
}

// wrapped draws s across as many lines as needed, step pixels apart.
func (p *page) wrapped(x int, s string, step int) {
	for _, l := range wrap(s, wrapColumns) {
		p.text(x, l, 1, step)
	}
}

func (p *page) skip(dy int) { p.y += dy }

func wrap(s string, cols int) []string {
	var out []string
	var cur string
	for _, w := range strings.Fields(s) {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if len(next) > cols && cur != "" {
			out = append(out, cur)
			next = w
		}
		cur = next
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// Invoice is the canonical sample invoice with a total of $11,220.00.
func Invoice() Document { return InvoiceWithTotal("$11,220.00") }

// InvoiceWithTotal is the sample invoice with the printed total replaced.
func InvoiceWithTotal(total string) Document {
	p := newPage("sample_invoice.png", constants.Invoice)
	p.text(50, "INVOICE", 2, 40)
	p.text(50, "Invoice Number: INV-2025-321", 1, 30)
	p.text(50, "Invoice Date: 01/15/2025", 1, 30)
	p.text(50, "Due Date: 02/15/2025", 1, 50)
	p.text(50, "Vendor: ABC Solutions Pvt Ltd", 1, 30)
	p.text(50, "123 Business Street, City, State 12345", 1, 50)
	p.text(50, "Bill To:", 1, 30)
	p.text(50, "XYZ Corporation", 1, 30)
	p.text(50, "Items:", 1, 40)
	p.text(50, "Item | Quantity | Unit Price | Total", 1, 30)
	for _, row := range []string{
		"Product A | 10 | $500.00 | $5,000.00",
		"Product B | 5 | $800.00 | $4,000.00",
		"Service C | 1 | $1,200.00 | $1,200.00",
	} {
		p.text(50, row, 1, 25)
	}
	p.skip(20)
	p.text(500, "Subtotal: $10,200.00", 1, 30)
	p.text(500, "Tax (10%): $1,020.00", 1, 30)
	p.text(500, "Total Amount: "+total, 1, 30)
	return p.doc
}

// Resume is the canonical sample resume.
func Resume() Document {
	p := newPage("sample_resume.png", constants.Resume)
	p.text(50, "John Doe", 2, 40)
	p.text(50, "Email: john.doe@email.com", 1, 25)
	p.text(50, "Phone: +1 (555) 123-4567", 1, 25)
	p.text(50, "Location: New York, NY", 1, 50)
	p.text(50, "OBJECTIVE", 1, 30)
	p.text(50, "Experienced software engineer seeking opportunities", 1, 50)
	p.text(50, "EDUCATION", 1, 30)
	p.text(50, "Bachelor of Science in Computer Science", 1, 25)
	p.text(50, "University of Technology, 2015-2019", 1, 50)
	p.text(50, "EXPERIENCE", 1, 30)
	p.text(50, "Senior Software Engineer - Tech Corp (2020-Present)", 1, 25)
	p.text(50, "Developed and maintained web applications", 1, 30)
	p.text(50, "Software Engineer - Startup Inc (2019-2020)", 1, 50)
	p.text(50, "SKILLS", 1, 30)
	p.text(50, "Python, JavaScript, React, Node.js, SQL, Docker, AWS", 1, 30)
	return p.doc
}

// Report is the canonical sample quarterly report.
func Report() Document {
	p := newPage("sample_report.png", constants.Report)
	p.text(50, "Quarterly Business Analysis Report", 2, 50)
	p.text(50, "Author: Jane Smith", 1, 30)
	p.text(50, "Date: January 2025", 1, 50)
	p.text(50, "ABSTRACT", 1, 30)
	p.wrapped(50, "This report analyzes the business performance for Q4 2024. "+
		"Key findings include revenue growth of 15%, customer satisfaction "+
		"scores above 90%, and successful launch of three new products. "+
		"Recommendations focus on expanding market presence and optimizing operations.", 20)
	p.skip(30)
	p.text(50, "Keywords: Business Analysis, Revenue, Growth, Performance", 1, 50)
	p.text(50, "INTRODUCTION", 1, 30)
	p.wrapped(50, "This report provides a comprehensive analysis of business metrics "+
		"and performance indicators for the fourth quarter.", 20)
	p.skip(30)
	p.text(50, "KEY FINDINGS", 1, 30)
	for _, f := range []string{
		"Revenue increased by 15% compared to previous quarter",
		"Customer satisfaction maintained above 90%",
		"Three new products successfully launched",
	} {
		p.text(50, "- "+f, 1, 25)
	}
	p.skip(20)
	p.text(50, "CONCLUSION", 1, 30)
	p.wrapped(50, "The quarter showed strong performance with significant growth "+
		"and successful product launches. Continued focus on customer "+
		"satisfaction and innovation is recommended.", 20)
	return p.doc
}

// Samples returns every canonical sample document.
func Samples() []Document {
	return []Document{Invoice(), Resume(), Report()}
}
