package crud

func text(col string) Attribute { return Attribute{Column: col, Kind: KindString} }

// Schemas of every content type served under /api.
var (
	MediaSchema = &Schema{
		Name: "file",
		Attributes: baseAttributes(map[string]Attribute{
			"name":            text("name"),
			"alternativeText": text("alternative_text"),
			"caption":         text("caption"),
			"hash":            text("hash"),
			"ext":             text("ext"),
			"mime":            text("mime"),
			"url":             text("url"),
			"provider":        text("provider"),
			"width":           {Column: "width", Kind: KindInt},
			"height":          {Column: "height", Kind: KindInt},
		}),
		Relations: map[string]Relation{},
	}

	SocialLinkSchema = &Schema{
		Name: "shared.social-link",
		Attributes: componentAttributes(map[string]Attribute{
			"platform": text("platform"),
			"url":      text("url"),
			"username": text("username"),
		}),
		Relations: map[string]Relation{},
	}

	AuthorSchema = &Schema{
		Name: "author",
		Attributes: baseAttributes(map[string]Attribute{
			"name":      text("name"),
			"slug":      text("slug"),
			"email":     text("email"),
			"jobTitle":  text("job_title"),
			"expertise": text("expertise"),
		}),
		Relations: map[string]Relation{
			"profilePicture": {Field: "ProfilePicture", Target: MediaSchema},
			"socialLinks":    {Field: "SocialLinks", Target: SocialLinkSchema},
		},
	}

	CategorySchema = taxonomySchema("category")
	TagSchema      = taxonomySchema("tag")

	SEOSchema = &Schema{
		Name: "shared.seo",
		Attributes: componentAttributes(map[string]Attribute{
			"metaTitle":       text("meta_title"),
			"metaDescription": text("meta_description"),
			"metaRobots":      text("meta_robots"),
			"canonicalURL":    text("canonical_url"),
			"twitterCardType": text("twitter_card_type"),
		}),
		Relations: map[string]Relation{
			"ogImage":      {Field: "OGImage", Target: MediaSchema},
			"twitterImage": {Field: "TwitterImage", Target: MediaSchema},
		},
	}

	CallToActionSchema = &Schema{
		Name: "shared.call-to-action",
		Attributes: componentAttributes(map[string]Attribute{
			"text": text("text"),
			"url":  text("url"),
			"type": text("type"),
			"icon": text("icon"),
		}),
		Relations: map[string]Relation{},
	}

	SectionSchema = &Schema{
		Name: "sections.content-section",
		Attributes: componentAttributes(map[string]Attribute{
			"title":  text("title"),
			"layout": text("layout"),
			"anchor": text("anchor"),
		}),
		Relations: map[string]Relation{
			"media":        {Field: "Media", Target: MediaSchema},
			"callToAction": {Field: "CallToAction", Target: CallToActionSchema},
		},
	}

	ReferenceSchema = &Schema{
		Name: "shared.reference",
		Attributes: componentAttributes(map[string]Attribute{
			"title":         text("title"),
			"url":           text("url"),
			"publisher":     text("publisher"),
			"referenceType": text("reference_type"),
		}),
		Relations: map[string]Relation{},
	}

	ArticleSchema = &Schema{
		Name: "article",
		Attributes: baseAttributes(map[string]Attribute{
			"title":       text("title"),
			"slug":        text("slug"),
			"summary":     text("summary"),
			"content":     text("content"),
			"readingTime": {Column: "reading_time", Kind: KindInt},
			"publishDate": {Column: "publish_date", Kind: KindTime},
			"updateDate":  {Column: "update_date", Kind: KindTime},
			"featured":    {Column: "featured", Kind: KindBool},
		}),
	}

	BlogPostSchema = &Schema{
		Name: "blog-post",
		Attributes: baseAttributes(map[string]Attribute{
			"title":       text("title"),
			"slug":        text("slug"),
			"excerpt":     text("excerpt"),
			"content":     text("content"),
			"publishDate": {Column: "publish_date", Kind: KindTime},
		}),
		Relations: map[string]Relation{
			"coverImage": {Field: "CoverImage", Target: MediaSchema},
		},
	}
)

// Article relations reference ArticleSchema itself, so they are set up here.
func init() {
	ArticleSchema.Relations = map[string]Relation{
		"featuredImage":   {Field: "FeaturedImage", Target: MediaSchema},
		"author":          {Field: "Author", Target: AuthorSchema},
		"categories":      {Field: "Categories", Target: CategorySchema},
		"tags":            {Field: "Tags", Target: TagSchema},
		"seo":             {Field: "SEO", Target: SEOSchema},
		"sections":        {Field: "Sections", Target: SectionSchema, Order: "position ASC"},
		"gallery":         {Field: "Gallery", Target: MediaSchema},
		"references":      {Field: "References", Target: ReferenceSchema, Order: "position ASC"},
		"relatedArticles": {Field: "RelatedArticles", Target: ArticleSchema},
	}
}

func taxonomySchema(name string) *Schema {
	return &Schema{
		Name: name,
		Attributes: baseAttributes(map[string]Attribute{
			"name":        text("name"),
			"slug":        text("slug"),
			"description": text("description"),
		}),
		Relations: map[string]Relation{},
	}
}
