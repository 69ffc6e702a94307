package inlinetext

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aisa-it/inline-text/internal/inlinetext/apierrors"
	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFields = `
fields:
  title:
    label: Заголовок
    allowNewlines: false
    allowLink: false
    required: true
  notes:
    output: markdown
  locked:
    disabled: true
`

type testServer struct {
	e   *echo.Echo
	reg *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := dao.OpenDB(&config.Config{DatabaseDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())}, true)
	require.NoError(t, err)
	store := dao.NewStore(db)
	require.NoError(t, store.Migrate())

	fields, err := config.ParseFields([]byte(testFields))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	e, err := NewServer(ServerOptions{
		Config:     &config.Config{BodyLimit: "1M"},
		Fields:     fields,
		Store:      store,
		Version:    "test",
		Registerer: reg,
	})
	require.NoError(t, err)
	return &testServer{e: e, reg: reg}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(data)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

// counter возвращает значение счетчика name с единственной меткой, равной label.
func (ts *testServer) counter(t *testing.T, name, label string) float64 {
	t.Helper()
	families, err := ts.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) == 1 && m.GetLabel()[0].GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, want apierrors.DefinedError) {
	t.Helper()
	assert.Equal(t, want.StatusCode, rec.Code, rec.Body.String())
	got := decode[apierrors.DefinedError](t, rec)
	assert.Equal(t, want.Code, got.Code)
}

func TestFieldList(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/fields/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type field struct {
		Name    string   `json:"name"`
		Allowed []string `json:"allowed"`
		Output  string   `json:"output"`
	}
	fields := decode[[]field](t, rec)
	require.Len(t, fields, 3)
	assert.Equal(t, "locked", fields[0].Name)
	assert.Equal(t, "notes", fields[1].Name)
	assert.Equal(t, "markdown", fields[1].Output)
	assert.Equal(t, "title", fields[2].Name)
	assert.Equal(t, []string{"bold", "italic", "underline", "strikethrough", "code"}, fields[2].Allowed)
	assert.Equal(t, "html", fields[2].Output)

	rec = ts.do(t, http.MethodGet, "/api/fields/missing/", nil)
	assertAPIError(t, rec, apierrors.ErrFieldNotFound)
}

func TestFieldToolbar(t *testing.T) {
	ts := newTestServer(t)

	t.Run("active", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/fields/title/toolbar/?active=bold,%20italic", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		st := decode[editor.ToolbarState](t, rec)
		require.Len(t, st.Controls, 5)
		assert.True(t, st.Controls[0].Active)
		assert.True(t, st.Controls[1].Active)
		assert.False(t, st.Controls[2].Active)
		assert.Nil(t, st.Link)
	})

	t.Run("link entry", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/fields/notes/toolbar/?link=open&url=http://x.com", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		st := decode[editor.ToolbarState](t, rec)
		require.Len(t, st.Controls, 6)
		require.NotNil(t, st.Link)
		assert.True(t, st.Link.CanSubmit)
	})

	t.Run("disabled", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/fields/locked/toolbar/", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		st := decode[editor.ToolbarState](t, rec)
		for _, c := range st.Controls {
			assert.True(t, c.Disabled)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/fields/title/toolbar/?active=blink", nil)
		assertAPIError(t, rec, apierrors.ErrUnknownFormat)
	})
}

func TestSanitizeField(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		field string
		req   sanitizeRequest
		want  string
	}{
		{"blocks without newlines", "title", sanitizeRequest{HTML: `<div style="font-weight:700">Hi</div><div>There</div>`}, "<strong>Hi</strong> There"},
		{"link removed", "title", sanitizeRequest{HTML: `<a href="http://x.com">x</a><script>y()</script>`}, "x"},
		{"markdown output", "notes", sanitizeRequest{HTML: `<b>a</b> <a href="http://x.com">b</a>`}, "**a** [b](http://x.com)"},
		{"plain text", "notes", sanitizeRequest{Text: "a\nb"}, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/fields/"+tt.field+"/sanitize/", tt.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[editorResponse](t, rec).Value)
		})
	}

	assert.Equal(t, float64(2), ts.counter(t, "inlinetext_sanitize_total", "title"))
	assert.Equal(t, float64(2), ts.counter(t, "inlinetext_sanitize_total", "notes"))
}

func TestFormatField(t *testing.T) {
	ts := newTestServer(t)

	t.Run("bold", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/fields/title/format/", formatRequest{Value: "hello world", Start: 0, End: 5, Format: "bold"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[formatResponse](t, rec)
		assert.Equal(t, "<strong>hello</strong> world", resp.Value)
		assert.Equal(t, 0, resp.Selection.Start)
		assert.Equal(t, 5, resp.Selection.End)
		assert.True(t, resp.Active.Has(editor.Bold))
	})

	t.Run("backward selection", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/fields/title/format/", formatRequest{Value: "hello", Start: 5, End: 0, Format: "italic"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[formatResponse](t, rec)
		assert.Equal(t, "<em>hello</em>", resp.Value)
		assert.Equal(t, 5, resp.Selection.Start)
		assert.Equal(t, 0, resp.Selection.End)
	})

	t.Run("markdown link", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/fields/notes/format/", formatRequest{Value: "hello", Start: 0, End: 5, Format: "link", Href: "http://x.com"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "[hello](http://x.com)", decode[formatResponse](t, rec).Value)
	})

	errs := []struct {
		name  string
		field string
		req   formatRequest
		want  apierrors.DefinedError
	}{
		{"unknown format", "title", formatRequest{Value: "a", End: 1, Format: "blink"}, apierrors.ErrUnknownFormat},
		{"not allowed", "title", formatRequest{Value: "a", End: 1, Format: "link", Href: "http://x.com"}, apierrors.ErrFormatNotAllowed},
		{"disabled", "locked", formatRequest{Value: "a", End: 1, Format: "bold"}, apierrors.ErrFieldDisabled},
		{"empty href", "notes", formatRequest{Value: "a", End: 1, Format: "link"}, apierrors.ErrLinkURLRequired},
		{"unsafe href", "notes", formatRequest{Value: "a", End: 1, Format: "link", Href: "javascript:alert(1)"}, apierrors.ErrLinkURLUnsafe},
		{"out of range", "title", formatRequest{Value: "abc", End: 10, Format: "bold"}, apierrors.ErrSelectionOutOfRange},
		{"negative", "title", formatRequest{Value: "abc", Start: -1, End: 1, Format: "bold"}, apierrors.ErrSelectionOutOfRange},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/fields/"+tt.field+"/format/", tt.req)
			assertAPIError(t, rec, tt.want)
		})
	}
}

func TestActiveFormats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/fields/notes/active/", activeRequest{Value: "**ab** c", Start: 1, End: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[formatResponse](t, rec)
	assert.Equal(t, editor.NewFormatSet(editor.Bold), resp.Active)
	assert.True(t, resp.Toolbar.Controls[0].Active)

	rec = ts.do(t, http.MethodPost, "/api/fields/notes/active/", activeRequest{Value: "**ab** c", Start: 3, End: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[formatResponse](t, rec).Active.Empty())
}

func TestConvert(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		req  convertRequest
		want string
	}{
		{"to markdown", convertRequest{Value: "<strong>a</strong> <em>b</em>", From: "html", To: "markdown"}, "**a** *b*"},
		{"to html", convertRequest{Value: "**a** [b](http://x.com)", From: "markdown", To: "html"}, `<strong>a</strong> <a href="http://x.com">b</a>`},
		{"same mode", convertRequest{Value: "**a**", From: "markdown", To: "markdown"}, "**a**"},
		{"sanitized by field", convertRequest{Value: `**a** [b](http://x.com)`, From: "markdown", To: "html", Field: "title"}, "<strong>a</strong> b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/convert/", tt.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[convertResponse](t, rec).Value)
		})
	}

	t.Run("target in path", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/convert/markdown/", convertRequest{Value: "<em>a</em><br>b"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "*a*\nb", decode[convertResponse](t, rec).Value)

		rec = ts.do(t, http.MethodPost, "/api/convert/html/", convertRequest{Value: "~~a~~"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "<del>a</del>", decode[convertResponse](t, rec).Value)

		rec = ts.do(t, http.MethodPost, "/api/convert/rtf/", convertRequest{Value: "a"})
		assertAPIError(t, rec, apierrors.ErrUnknownOutputMode)
	})

	t.Run("unknown mode", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/convert/", convertRequest{Value: "a", From: "rtf", To: "html"})
		assertAPIError(t, rec, apierrors.ErrUnknownOutputMode)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/convert/", convertRequest{Value: "a", From: "html", To: "html", Field: "missing"})
		assertAPIError(t, rec, apierrors.ErrFieldNotFound)
	})
}

func TestValues(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/values/notes/k2/", valueRequest{Value: "<strong>x</strong>", Mode: "html"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[dao.FieldValue](t, rec)
	assert.Equal(t, "**x**", saved.Value)
	assert.Equal(t, "markdown", saved.Mode.String())

	rec = ts.do(t, http.MethodPut, "/api/values/notes/k1/", valueRequest{Value: "*y*"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("get", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/values/notes/k2/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[dao.FieldValue](t, rec)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "**x**", got.Value)
	})

	t.Run("list", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/values/notes/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		values := decode[[]dao.FieldValue](t, rec)
		require.Len(t, values, 2)
		assert.Equal(t, "k1", values[0].Key)
		assert.Equal(t, "k2", values[1].Key)
	})

	t.Run("preview", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/preview/notes/k2/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
		assert.Contains(t, rec.Body.String(), "<strong>x</strong>")
		assert.Contains(t, rec.Body.String(), "notes / k2 (markdown)")
	})

	t.Run("sanitized on save", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/values/title/1/", valueRequest{Value: `<b>t</b><br><a href="http://x.com">l</a><script>x()</script>`})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "<strong>t</strong> l", decode[dao.FieldValue](t, rec).Value)
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/api/values/notes/k1/", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/values/notes/k1/", nil)
		assertAPIError(t, rec, apierrors.ErrValueNotFound)

		rec = ts.do(t, http.MethodDelete, "/api/values/notes/k1/", nil)
		assertAPIError(t, rec, apierrors.ErrValueNotFound)
	})

	errs := []struct {
		name   string
		method string
		path   string
		body   any
		want   apierrors.DefinedError
	}{
		{"required", http.MethodPut, "/api/values/title/2/", valueRequest{Value: "<b> </b>"}, apierrors.ErrValueRequired},
		{"invalid key", http.MethodPut, "/api/values/notes/bad$key/", valueRequest{Value: "a"}, apierrors.ErrInvalidKey},
		{"unknown mode", http.MethodPut, "/api/values/notes/k3/", valueRequest{Value: "a", Mode: "rtf"}, apierrors.ErrUnknownOutputMode},
		{"disabled", http.MethodPut, "/api/values/locked/k1/", valueRequest{Value: "a"}, apierrors.ErrFieldDisabled},
		{"unknown field", http.MethodGet, "/api/values/missing/k1/", nil, apierrors.ErrFieldNotFound},
		{"missing preview", http.MethodGet, "/preview/notes/nope/", nil, apierrors.ErrValueNotFound},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			assertAPIError(t, ts.do(t, tt.method, tt.path, tt.body), tt.want)
		})
	}
}

func TestVersionAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/version/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[map[string]any](t, rec)
	assert.Equal(t, "test", v["version"])
	assert.EqualValues(t, 3, v["fields"])
	assert.Equal(t, "InlineText", rec.Header().Get(echo.HeaderServer))

	rec = ts.do(t, http.MethodGet, "/api/_health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
