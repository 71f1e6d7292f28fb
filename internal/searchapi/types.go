package searchapi

// Response is the JSON envelope returned by the search API.
type Response struct {
	Items []Item `json:"items"`
}

// Item is a single search hit. For image-branch queries the product page is
// reached via Image.ContextLink; Link is then the literal image asset URL.
type Item struct {
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Snippet string   `json:"snippet,omitempty"`
	Pagemap *Pagemap `json:"pagemap,omitempty"`
	Image   *Image   `json:"image,omitempty"`
}

// Pagemap is the structured-data sidecar attached to a search hit.
type Pagemap struct {
	Offer        []Offer             `json:"offer,omitempty"`
	Product      []Product           `json:"product,omitempty"`
	Metatags     []map[string]string `json:"metatags,omitempty"`
	CSEImage     []ImageSource       `json:"cse_image,omitempty"`
	CSEThumbnail []ImageSource       `json:"cse_thumbnail,omitempty"`
}

// Offer carries offer-level structured data.
type Offer struct {
	Price         string `json:"price,omitempty"`
	PriceCurrency string `json:"pricecurrency,omitempty"`
}

// Product carries product-level structured data.
type Product struct {
	Price         string `json:"price,omitempty"`
	PriceCurrency string `json:"pricecurrency,omitempty"`
}

// ImageSource is a pagemap image reference.
type ImageSource struct {
	Src string `json:"src,omitempty"`
}

// Image is the image-branch sidecar; ContextLink points at the page hosting
// the image.
type Image struct {
	ContextLink   string `json:"contextLink,omitempty"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
}

// ProductPageLink returns the URL to treat as the item's product page.
func (i Item) ProductPageLink() string {
	if i.Image != nil && i.Image.ContextLink != "" {
		return i.Image.ContextLink
	}
	return i.Link
}
