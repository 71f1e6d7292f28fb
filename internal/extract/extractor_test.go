package extract_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/extract"
)

const testPageURL = "https://shop.example.com/product/42"

// ogPriceHTML carries a full OpenGraph product block.
const ogPriceHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Ceramic Mug - Example Shop</title>
  <meta property="og:title" content="Ceramic Mug - Example Shop">
  <meta property="og:image" content="https://cdn.example.com/mug.jpg">
  <meta property="product:price:amount" content="19.99">
  <meta property="product:price:currency" content="EUR">
</head>
<body><h1>Ceramic Mug</h1></body>
</html>`

// jsonLDGraphHTML has its product offer buried in a @graph wrapper with an
// array-valued @type, and no price meta tags.
const jsonLDGraphHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Walnut Desk | Makers Co</title>
  <script type="application/ld+json">
  {
    "@context": "https://schema.org",
    "@graph": [
      {"@type": "BreadcrumbList", "itemListElement": []},
      {
        "@type": ["Thing", "Product"],
        "name": "Walnut Desk",
        "offers": {"@type": "Offer", "price": "449.00", "priceCurrency": "GBP"}
      }
    ]
  }
  </script>
</head>
<body><p>A fine desk.</p></body>
</html>`

// jsonLDOfferArrayHTML uses an array of offers with lowPrice populated.
const jsonLDOfferArrayHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Desk Lamp</title>
  <script type="application/ld+json">
  [{"@type": "product", "offers": [{"lowPrice": 35.5, "priceCurrency": "AUD"}]}]
  </script>
</head>
<body></body>
</html>`

// regexFallbackHTML has no structured data; the only price is in body text.
const regexFallbackHTML = `<!DOCTYPE html>
<html>
<head><title>Hand Thrown Vase</title></head>
<body>
  <p>A beautiful vase, now only $1,234.56 while stocks last.</p>
  <script>var tracking = "$9999";</script>
</body>
</html>`

// noTitleHTML is an access-denied style interstitial without a title.
const noTitleHTML = `<!DOCTYPE html>
<html>
<head></head>
<body><p>Access Denied. Reference #18.4</p></body>
</html>`

// relativeImageHTML carries a relative og:image path.
const relativeImageHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Blue Bowl</title>
  <meta property="og:image" content="/images/bowl.png">
</head>
<body></body>
</html>`

func newExtractor(t *testing.T) *extract.Extractor {
	t.Helper()

	return extract.NewExtractor(extract.WithDefaultCurrency(domain.USD))
}

func TestExtract_OpenGraphPriceWins(t *testing.T) {
	t.Parallel()

	meta, err := newExtractor(t).Extract(testPageURL, []byte(ogPriceHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Title != "Ceramic Mug" {
		t.Errorf("Title = %q, want suffix-cleaned %q", meta.Title, "Ceramic Mug")
	}
	if meta.Image != "https://cdn.example.com/mug.jpg" {
		t.Errorf("Image = %q", meta.Image)
	}
	if meta.Price.Amount != 19.99 || meta.Price.Currency != domain.EUR {
		t.Errorf("Price = %+v, want 19.99 EUR", meta.Price)
	}
}

func TestExtract_JSONLDGraph(t *testing.T) {
	t.Parallel()

	meta, err := newExtractor(t).Extract(testPageURL, []byte(jsonLDGraphHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Title != "Walnut Desk" {
		t.Errorf("Title = %q, want %q", meta.Title, "Walnut Desk")
	}
	if meta.Price.Amount != 449 || meta.Price.Currency != domain.GBP {
		t.Errorf("Price = %+v, want 449 GBP", meta.Price)
	}
}

func TestExtract_JSONLDOfferArray(t *testing.T) {
	t.Parallel()

	meta, err := newExtractor(t).Extract(testPageURL, []byte(jsonLDOfferArrayHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Price.Amount != 35.5 || meta.Price.Currency != domain.AUD {
		t.Errorf("Price = %+v, want 35.5 AUD", meta.Price)
	}
}

func TestExtract_RegexFallbackSkipsScripts(t *testing.T) {
	t.Parallel()

	meta, err := newExtractor(t).Extract(testPageURL, []byte(regexFallbackHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Price.Amount != 1234.56 {
		t.Errorf("Amount = %v, want 1234.56 from body text, not script content", meta.Price.Amount)
	}
	if meta.Price.Currency != domain.USD {
		t.Errorf("Currency = %q, want default USD for bare dollar", meta.Price.Currency)
	}
}

func TestExtract_NoTitleIsHardError(t *testing.T) {
	t.Parallel()

	_, err := newExtractor(t).Extract(testPageURL, []byte(noTitleHTML))
	if !errors.Is(err, extract.ErrNoTitle) {
		t.Fatalf("err = %v, want ErrNoTitle", err)
	}
}

func TestExtract_RelativeImageResolved(t *testing.T) {
	t.Parallel()

	meta, err := newExtractor(t).Extract(testPageURL, []byte(relativeImageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "https://shop.example.com/images/bowl.png"
	if meta.Image != want {
		t.Errorf("Image = %q, want %q", meta.Image, want)
	}
}

func TestExtract_NoPriceSignal(t *testing.T) {
	t.Parallel()

	html := strings.Replace(regexFallbackHTML, "$1,234.56", "a fair trade", 1)

	meta, err := newExtractor(t).Extract(testPageURL, []byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !meta.Price.IsAbsent() {
		t.Errorf("Price = %+v, want absent", meta.Price)
	}
	if meta.Price.Currency != domain.Unknown {
		t.Errorf("Currency = %q, want Unknown", meta.Price.Currency)
	}
}
