package extract

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const spanishPara = "El Gobierno de China anunció este martes un nuevo paquete de medidas económicas " +
	"destinadas a estimular el consumo interno y a reforzar la confianza de los inversores extranjeros."

func articlePage(paragraphs int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Noticia</title>
<meta name="author" content="Redacción">
<meta property="article:published_time" content="2024-06-01T09:00:00Z">
</head><body><nav><a href="/">Inicio</a><a href="/int">Internacional</a></nav><article><h1>Titular de la noticia</h1>`)
	for i := 0; i < paragraphs; i++ {
		b.WriteString("<p>")
		b.WriteString(spanishPara)
		b.WriteString(strings.Repeat(" Párrafo adicional número", i%3))
		b.WriteString("</p>")
	}
	b.WriteString(`</article><div id="comments"><p>Comentario de un lector muy largo que no forma parte del artículo.</p></div>
<footer>Aviso legal</footer></body></html>`)
	return b.String()
}

func TestPrimaryOK(t *testing.T) {
	e := NewPrimaryExtractor(config.DefaultConfig().Extractor, testLogger)
	res := e.Extract(articlePage(6), "https://elpais.com/internacional/a.html")
	if res.Status != types.ResultOK {
		t.Fatalf("expected ok, got %s (%s) chars=%d", res.Status, res.Err, res.CharCount)
	}
	if res.Method != types.MethodPrimary {
		t.Errorf("method = %s", res.Method)
	}
	if res.CharCount < 200 {
		t.Errorf("char count = %d", res.CharCount)
	}
	if strings.Contains(res.Text, "Comentario de un lector") {
		t.Error("comments should not reach the text")
	}
	if !strings.Contains(res.Text, "\n\n") {
		t.Error("paragraphs should be separated by blank lines")
	}
	if res.Language != "es" {
		t.Errorf("language = %q", res.Language)
	}
	if res.PublishDate == nil {
		t.Error("expected publish date from metadata")
	} else if want := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC); !res.PublishDate.Equal(want) {
		t.Errorf("publish date = %v, want %v", res.PublishDate, want)
	}
}

func TestPrimaryPublishDateFromJSONLD(t *testing.T) {
	page := strings.Replace(articlePage(6), "</head>",
		`<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2024-05-30T18:15:00Z"}</script></head>`, 1)
	page = strings.Replace(page, `<meta property="article:published_time" content="2024-06-01T09:00:00Z">`, "", 1)

	e := NewPrimaryExtractor(config.DefaultConfig().Extractor, testLogger)
	res := e.Extract(page, "https://elpais.com/internacional/b.html")
	if res.PublishDate == nil {
		t.Fatal("expected publish date from JSON-LD")
	}
	if want := time.Date(2024, 5, 30, 18, 15, 0, 0, time.UTC); !res.PublishDate.Equal(want) {
		t.Errorf("publish date = %v, want %v", res.PublishDate, want)
	}
}

func TestPrimaryInsufficient(t *testing.T) {
	e := NewPrimaryExtractor(config.DefaultConfig().Extractor, testLogger)
	for name, html := range map[string]string{
		"empty":   "",
		"short":   "<html><body><p>Breve.</p></body></html>",
		"no body": "<html><head><title>x</title></head></html>",
	} {
		res := e.Extract(html, "https://example.com/a")
		if res.Status != types.ResultInsufficient {
			t.Errorf("%s: expected insufficient, got %s (%s)", name, res.Status, res.Err)
		}
	}
}

func TestPrimaryRepeatedBlocksOnce(t *testing.T) {
	dup := "Este bloque se repite dos veces en la plantilla de la página y solo debe aparecer una vez en el texto final."
	page := "<html><body><article>" +
		"<p>" + spanishPara + "</p>" +
		"<p>" + dup + "</p>" +
		"<p>Las autoridades de Pekín insistieron en que el crecimiento seguirá siendo sólido durante el resto del año.</p>" +
		"<p>" + dup + "</p>" +
		"</article></body></html>"
	e := NewPrimaryExtractor(config.DefaultConfig().Extractor, testLogger)
	res := e.Extract(page, "https://example.com/a")
	if n := strings.Count(res.Text, dup); n != 1 {
		t.Errorf("repeated paragraph emitted %d times", n)
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage(spanishPara); got != "es" {
		t.Errorf("DetectLanguage = %q", got)
	}
	if got := DetectLanguage("corto"); got != "" {
		t.Errorf("short text should not be detected, got %q", got)
	}
}
