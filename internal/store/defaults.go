package store

import (
	"fmt"
	"strings"
)

// Accessory and keep keywords used by stores whose search mixes laptops with
// their accessories.
var (
	AccessoryKeywords = []string{"forro", "sleeve", "mochila", "maleta", "cable", "adaptador", "mouse", "audifono"}
	KeepKeywords      = []string{"laptop", "notebook"}
)

// Defaults returns the built-in store table.
func Defaults() []Config {
	return []Config{
		{
			Name:      "novicompu",
			BaseURL:   "https://www.novicompu.com",
			SearchURL: "https://www.novicompu.com/{path}?_q={query}&map=ft",
			Render:    RenderBrowser,
			Listing: ListingSelectors{
				Card:    "a.vtex-product-summary-2-x-clearLink",
				Name:    "div.vtex-product-summary-2-x-nameContainer",
				Price:   "span.vtex-product-price-1-x-sellingPrice",
				Image:   "img.vtex-product-summary-2-x-image",
				WaitFor: "a.vtex-product-summary-2-x-clearLink",
			},
			Detail: DetailSelectors{
				Name:        "h1.vtex-store-components-3-x-productBrand",
				Price:       "div.vtex-store-components-3-x-sellingPrice",
				Image:       "img.vtex-store-components-3-x-productImageTag",
				Description: "div.vtex-store-components-3-x-description",
				SpecsTable:  "table.vtex-store-components-3-x-specificationsTable",
				WaitFor:     "h1.vtex-store-components-3-x-productBrand",
			},
		},
		{
			Name:      "computron",
			BaseURL:   "https://www.computron.com.ec",
			SearchURL: "/?s={query}",
			Render:    RenderHTTP,
			Listing: ListingSelectors{
				Card:  "article.blog-post-loop",
				Name:  "h2.entry-title a",
				Link:  "h2.entry-title a",
				Image: "div.entry-thumbnail-wrapper img",
			},
			Detail: DetailSelectors{
				Name:        "h1.product_title.entry-title",
				Price:       "p.price span.woocommerce-Price-amount bdi",
				Image:       "img.wp-post-image",
				Description: "div.woocommerce-Tabs-panel--description p",
			},
			Exclude:    AccessoryKeywords,
			Keep:       KeepKeywords,
			MaxResults: 10,
		},
		{
			Name:      "mobilestore",
			BaseURL:   "https://mobilestore.ec",
			SearchURL: "/?s={query}&post_type=product",
			Render:    RenderBrowser,
			Listing: ListingSelectors{
				Card:    "article.product",
				Name:    "h2.entry-title, h2.woocommerce-loop-product__title",
				Link:    "a.woocommerce-LoopProduct-link, a.image-result",
				Image:   "a.image-result img, img.wp-post-image",
				WaitFor: "article.product",
			},
			Detail: DetailSelectors{
				Name:        "h1.product_title.entry-title",
				Price:       "p.price ins",
				Image:       "div.woocommerce-product-gallery__image img, .wp-post-image",
				Description: "div.woocommerce-product-details__short-description, div.woocommerce-tabs #tab-description",
				SpecsTable:  "table.woocommerce-product-attributes",
				WaitFor:     "h1.product_title.entry-title",
			},
		},
		{
			Name:      "la_ganga",
			BaseURL:   "https://laganga.com",
			SearchURL: "/catalogsearch/result/?q={query}",
			Render:    RenderHTTP,
			Listing: ListingSelectors{
				Card:  "li.item.product.product-item",
				Name:  "strong.product.name.product-item-name",
				Link:  "strong.product.name.product-item-name a.product-item-link",
				Price: "div.price-box.price-final_price span.price-container span.price",
				Image: "div.product_item_images img",
			},
			Detail: DetailSelectors{
				Name:        "div.product-title-wrap h1.page-title",
				Price:       "div.product-rate-price span.price",
				Image:       "div.product_item_images img.product-image-photo",
				Description: "div.product.attribute.overview div.value",
			},
		},
	}
}

// Lookup returns the built-in config for name.
func Lookup(name string) (Config, error) {
	for _, c := range Defaults() {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("store: unknown store %q", name)
}
