package scrape_test

import (
	"testing"

	"github.com/shouni/go-web-harvest/pkg/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateImages(t *testing.T) {
	t.Run("relative_sources_resolve_against_base", func(t *testing.T) {
		html := `<html><body>
<img src="pic.png">
<img src="../up.jpg">
<img src="/root.gif">
<img src="//cdn.example.com/c.png">
<img src="https://other.example.org/abs.jpg">
</body></html>`
		doc, err := scrape.NewDocument(html)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://example.com/a/b/", "", 0)
		assert.Equal(t, []string{
			"https://example.com/a/b/pic.png",
			"https://example.com/a/up.jpg",
			"https://example.com/root.gif",
			"https://cdn.example.com/c.png",
			"https://other.example.org/abs.jpg",
		}, urls)
	})

	t.Run("parent_relative_source", func(t *testing.T) {
		// base https://example.com/a/ + src ../b.jpg → https://example.com/b.jpg
		doc, err := scrape.NewDocument(`<img src="../b.jpg">`)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://example.com/a/", "", 0)
		assert.Equal(t, []string{"https://example.com/b.jpg"}, urls)
	})

	t.Run("duplicates_removed_preserving_first_occurrence", func(t *testing.T) {
		html := `<html><body>
<img src="one.png">
<img src="two.png">
<img src="one.png">
<img src="./two.png">
<img src="three.png">
</body></html>`
		doc, err := scrape.NewDocument(html)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://x.test/dir/", "", 0)
		assert.Equal(t, []string{
			"https://x.test/dir/one.png",
			"https://x.test/dir/two.png",
			"https://x.test/dir/three.png",
		}, urls)
	})

	t.Run("sources_missing_src_are_skipped", func(t *testing.T) {
		html := `<html><body>
<img>
<img src="">
<img src="   ">
<img src="real.png">
</body></html>`
		doc, err := scrape.NewDocument(html)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://x.test/", "", 0)
		assert.Equal(t, []string{"https://x.test/real.png"}, urls)
	})

	t.Run("selector_scopes_search_to_matched_subtrees", func(t *testing.T) {
		html := `<html><body>
<div class="content"><img src="inside.png"></div>
<aside><img src="outside.png"></aside>
</body></html>`
		doc, err := scrape.NewDocument(html)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://x.test/", ".content", 0)
		assert.Equal(t, []string{"https://x.test/inside.png"}, urls)
	})

	t.Run("positive_limit_returns_prefix_of_unbounded_result", func(t *testing.T) {
		html := `<img src="1.png"><img src="2.png"><img src="3.png">`
		doc, err := scrape.NewDocument(html)
		require.NoError(t, err)

		all := scrape.LocateImages(doc, "https://x.test/", "", 0)
		limited := scrape.LocateImages(doc, "https://x.test/", "", 2)
		require.Len(t, all, 3)
		assert.Equal(t, all[:2], limited)
	})

	t.Run("no_images_yields_empty_result", func(t *testing.T) {
		doc, err := scrape.NewDocument(`<html><body><p>no images</p></body></html>`)
		require.NoError(t, err)

		urls := scrape.LocateImages(doc, "https://x.test/", "", 0)
		assert.Empty(t, urls)
	})
}
