package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutHTML = `<html><head><title> Shop </title></head><body>
<form>
  <input id="qty" type="number" value="2">
  <input type="text" value="¥3,000">
  <input type="checkbox">
  <button class="btn">Buy</button>
</form>
<textarea>notes 5</textarea>
<div contenteditable="true">$12</div>
<div class="ad"><input type="text" name="promo"></div>
</body></html>`

func parseCheckout(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse("https://shop.example/checkout", strings.NewReader(checkoutHTML))
	require.NoError(t, err)
	return doc
}

func TestCandidates(t *testing.T) {
	doc := parseCheckout(t)
	assert.Equal(t, "Shop", doc.Title())

	var keys []string
	for _, el := range doc.Candidates() {
		keys = append(keys, el.Key)
	}
	assert.Equal(t, []string{
		"input#qty",
		"html>body>form>input:nth-of-type(2)",
		"html>body>form>input:nth-of-type(3)",
		"html>body>form>button",
		"html>body>textarea",
		"html>body>div:nth-of-type(1)",
		"html>body>div:nth-of-type(2)",
		"html>body>div:nth-of-type(2)>input",
	}, keys)
}

func TestMonitored(t *testing.T) {
	doc := parseCheckout(t)

	got := doc.Monitored(classifier.New(models.FilterConfig{}, nil))
	var texts []string
	for _, el := range got {
		texts = append(texts, el.Text)
	}
	assert.Equal(t, []string{"2", "¥3,000", "notes 5", "$12", ""}, texts)

	blocked := doc.Monitored(classifier.New(models.FilterConfig{
		SelectorFilterMode: models.FilterBlocklist,
		BlockedSelectors:   []string{".ad input", "#qty"},
	}, nil))
	assert.Len(t, blocked, 3)
}

func TestFind(t *testing.T) {
	doc := parseCheckout(t)

	el, ok := doc.Find("html>body>textarea")
	require.True(t, ok)
	assert.Equal(t, "textarea", el.Tag)
	assert.Equal(t, "notes 5", el.Text)
	assert.True(t, classifier.LooksLikeTextEntry(el.Descriptor))

	_, ok = doc.Find("html>body>select")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(checkoutHTML))
	}))
	defer srv.Close()

	f := fetcher.NewFetcher()
	doc, err := Load(context.Background(), f, srv.URL+"/checkout")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/checkout", doc.URL)
	assert.Len(t, doc.Candidates(), 8)

	_, err = Load(context.Background(), f, srv.URL+"/gone")
	assert.Error(t, err)
}
