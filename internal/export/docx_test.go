package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/document"
)

func TestPrintExport_ProducesArtifact(t *testing.T) {
	e := NewPrintExporter("", time.Second, zerolog.Nop())
	d := document.New(planFixture)

	a, err := e.Export(context.Background(), d)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if a.Filename != "ToolKit-Hope-John-3.docx" {
		t.Errorf("Filename = %q", a.Filename)
	}
	if a.ContentType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("ContentType = %q", a.ContentType)
	}
	if len(a.Data) == 0 {
		t.Error("empty artifact")
	}
}

// documentXML pulls word/document.xml out of the rendered artifact.
func documentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(raw)
	}
	t.Fatal("artifact has no word/document.xml")
	return ""
}

func TestPrintExport_HeadingsPinnedToNextParagraph(t *testing.T) {
	e := NewPrintExporter("", time.Second, zerolog.Nop())
	d := document.New("## **Summary**\n\nBody paragraph.")

	a, err := e.Export(context.Background(), d)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if xml := documentXML(t, a.Data); !strings.Contains(xml, "keepNext") {
		t.Error("heading paragraph carries no keepNext property")
	}
}

func TestPrintExport_UnreachableHeaderImageDoesNotFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	e := NewPrintExporter(srv.URL+"/banner.png", 500*time.Millisecond, zerolog.Nop())
	a, err := e.Export(context.Background(), document.New("# Talk\n\nbody"))
	if err != nil {
		t.Fatalf("Export should survive a dead image host: %v", err)
	}
	if len(a.Data) == 0 {
		t.Error("empty artifact")
	}
}

func TestPrintExport_SlowImageHostBoundedByTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	e := NewPrintExporter(srv.URL+"/banner.png", 100*time.Millisecond, zerolog.Nop())
	start := time.Now()
	if _, err := e.Export(context.Background(), document.New("# Talk\n\nbody")); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("export blocked on the image host for %v", elapsed)
	}
}
