package models

import "github.com/webapp-skeleton/cms/internal/pkg/populate"

// ArticlePopulate is the relation set every article read expands: media,
// author profile, taxonomy, SEO images, section blocks, gallery, references and
// the related articles' cards.
func ArticlePopulate() populate.Tree {
	return populate.Tree{
		"featuredImage":   populate.Leaf(),
		"author":          populate.Nested(populate.Of("profilePicture", "socialLinks")),
		"categories":      populate.Leaf(),
		"tags":            populate.Leaf(),
		"seo":             populate.Nested(populate.Of("ogImage", "twitterImage")),
		"sections":        populate.Nested(populate.Of("media", "callToAction")),
		"gallery":         populate.Leaf(),
		"references":      populate.Leaf(),
		"relatedArticles": populate.Nested(populate.Of("featuredImage", "author")),
	}
}
