package export

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/document"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

const (
	printFont     = "Georgia"
	printFontSize = 11
	printColor    = "000000"
)

// PrintExporter renders a document to a print-style paginated file. The
// optional header image is fetched per export with a bounded wait; a
// slow or dead image host delays the export by at most the timeout and
// never fails it.
type PrintExporter struct {
	headerImageURL string
	client         *http.Client
	log            zerolog.Logger
}

func NewPrintExporter(headerImageURL string, imageTimeout time.Duration, log zerolog.Logger) *PrintExporter {
	return &PrintExporter{
		headerImageURL: headerImageURL,
		client:         &http.Client{Timeout: imageTimeout},
		log:            log.With().Str("component", "export").Logger(),
	}
}

// Export lays out the document and writes the paginated file.
func (e *PrintExporter) Export(ctx context.Context, d *document.Document) (Artifact, error) {
	plan := BuildPlan(d.Source())

	doc, err := godocx.NewDocument()
	if err != nil {
		return Artifact{}, pipeline.Wrap(pipeline.CodeExportFailed, "create print document", err)
	}

	if imgPath := e.fetchHeaderImage(ctx); imgPath != "" {
		defer os.Remove(imgPath)
		doc.AddPicture(imgPath, units.Inch(6.0), units.Inch(1.5))
	}

	for _, b := range plan.Blocks {
		if b.PageBreakBefore {
			doc.AddPageBreak()
		}
		writeBlock(doc, b)
	}

	data, err := save(doc)
	if err != nil {
		return Artifact{}, pipeline.Wrap(pipeline.CodeExportFailed, "write print document", err)
	}
	return Artifact{
		Filename:    d.Stem() + ".docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        data,
	}, nil
}

func writeBlock(doc *docx.RootDoc, b Block) {
	switch b.Kind {
	case KindHeading:
		p := doc.AddParagraph("")
		if b.KeepWithNext {
			keepWithNext(p)
		}
		run := p.AddText(b.Text())
		run.Font(printFont).Size(headingSize(b.Level)).Color(printColor).Bold(true)
	case KindRule:
		doc.AddParagraph("")
	case KindListItem:
		p := doc.AddParagraph("")
		prefix := strings.Repeat("    ", b.Indent) + b.Marker
		if prefix != "" {
			p.AddText(prefix).Font(printFont).Size(printFontSize).Color(printColor)
		}
		writeRuns(p, b.Inlines)
	case KindQuote:
		p := doc.AddParagraph("")
		for _, in := range b.Inlines {
			r := p.AddText(in.Text).Font(printFont).Size(printFontSize).Color(printColor).Italic(true)
			if in.Bold {
				r.Bold(true)
			}
		}
	default:
		p := doc.AddParagraph("")
		writeRuns(p, b.Inlines)
	}
}

// keepWithNext pins a paragraph to the one after it so a heading never
// strands at the bottom of a page.
func keepWithNext(p *docx.Paragraph) {
	ct := p.GetCT()
	if ct.Property == nil {
		ct.Property = ctypes.DefaultParaProperty()
	}
	ct.Property.KeepNext = ctypes.OnOffFromBool(true)
}

func writeRuns(p *docx.Paragraph, runs []Inline) {
	for _, in := range runs {
		r := p.AddText(in.Text).Font(printFont).Size(printFontSize).Color(printColor)
		if in.Bold {
			r.Bold(true)
		}
		if in.Italic {
			r.Italic(true)
		}
	}
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 17
	case 2:
		return 14
	case 3:
		return 12
	default:
		return printFontSize
	}
}

// fetchHeaderImage downloads the configured banner to a temp file and
// returns its path, or "" when there is no image to place.
func (e *PrintExporter) fetchHeaderImage(ctx context.Context) string {
	if e.headerImageURL == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.headerImageURL, nil)
	if err != nil {
		e.log.Warn().Err(err).Msg("Header image request invalid, exporting without it")
		return ""
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Warn().Err(err).Msg("Header image fetch failed, exporting without it")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		e.log.Warn().Int("status", resp.StatusCode).Msg("Header image fetch failed, exporting without it")
		return ""
	}

	f, err := os.CreateTemp("", "header-*"+imageExt(e.headerImageURL))
	if err != nil {
		e.log.Warn().Err(err).Msg("Header image temp file failed, exporting without it")
		return ""
	}
	if _, err := io.Copy(f, io.LimitReader(resp.Body, 10<<20)); err != nil {
		f.Close()
		os.Remove(f.Name())
		e.log.Warn().Err(err).Msg("Header image download failed, exporting without it")
		return ""
	}
	f.Close()
	return f.Name()
}

func imageExt(url string) string {
	ext := strings.ToLower(filepath.Ext(url))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
		return ext
	}
	return ".png"
}

// save round-trips the document through a temp file. The library writes
// whole files only.
func save(doc *docx.RootDoc) ([]byte, error) {
	f, err := os.CreateTemp("", "toolkit-*.docx")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := doc.SaveTo(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
