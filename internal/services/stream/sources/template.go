package sources

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/utils"

	"github.com/samber/lo"
)

const maxCachedPages = 1024

// sitePage is the stand-in body streamed for sites without a prepared file
var sitePage = template.Must(template.New("site").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Name}}</title>
</head>
<body>
  <header><h1>{{.Name}}</h1></header>
  <main>
{{- range .Sections}}
    <section id="section-{{.Index}}">
      <h2>{{.Title}}</h2>
      <p>{{.Body}}</p>
    </section>
{{- end}}
  </main>
  <footer>Generated {{.GeneratedAt}}</footer>
</body>
</html>
`))

type pageSection struct {
	Index int
	Title string
	Body  string
}

type pageData struct {
	Name        string
	GeneratedAt string
	Sections    []pageSection
}

// TemplateOpener renders a stand-in HTML page for any positive numeric identifier.
// Each page is rendered once and served from cache afterwards.
type TemplateOpener struct {
	sections int
	now      func() time.Time
	pages    *utils.RenderCache
}

// NewTemplateOpener creates a template opener producing pages with the given number of sections
func NewTemplateOpener(sections int) *TemplateOpener {
	if sections <= 0 {
		sections = 8
	}
	return &TemplateOpener{
		sections: sections,
		now:      time.Now,
		pages:    utils.NewRenderCache(maxCachedPages),
	}
}

// Open renders the page for identifier
func (o *TemplateOpener) Open(ctx context.Context, identifier string) (contracts.ContentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(identifier, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("identifier %q: %w", identifier, contracts.ErrContentNotFound)
	}

	page, err := o.pages.GetOrRender(strconv.FormatInt(id, 10), func() ([]byte, error) {
		return o.render(id)
	})
	if err != nil {
		return nil, err
	}

	return newBytesHandle(page), nil
}

func (o *TemplateOpener) render(id int64) ([]byte, error) {
	data := pageData{
		Name:        fmt.Sprintf("Site %d", id),
		GeneratedAt: o.now().UTC().Format(time.RFC3339),
		Sections: lo.Map(lo.RangeFrom(1, o.sections), func(i int, _ int) pageSection {
			return pageSection{
				Index: i,
				Title: fmt.Sprintf("Section %d", i),
				Body:  fmt.Sprintf("Placeholder copy for section %d of site %d.", i, id),
			}
		}),
	}

	var buf bytes.Buffer
	if err := sitePage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render site %d: %w", id, err)
	}
	return buf.Bytes(), nil
}

// FallbackOpener tries primary first and uses fallback only when primary has no content
type FallbackOpener struct {
	primary  contracts.ContentOpener
	fallback contracts.ContentOpener
}

// NewFallbackOpener chains two openers
func NewFallbackOpener(primary, fallback contracts.ContentOpener) *FallbackOpener {
	return &FallbackOpener{primary: primary, fallback: fallback}
}

// Open resolves identifier through primary, then fallback on not-found
func (o *FallbackOpener) Open(ctx context.Context, identifier string) (contracts.ContentHandle, error) {
	handle, err := o.primary.Open(ctx, identifier)
	if err == nil {
		return handle, nil
	}
	if !contracts.IsNotFound(contracts.NewOpenError("", identifier, err)) {
		return nil, err
	}

	handle, fallbackErr := o.fallback.Open(ctx, identifier)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fallback for %q: %w", identifier, fallbackErr)
	}
	return handle, nil
}
