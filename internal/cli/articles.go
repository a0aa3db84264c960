package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/webapp-skeleton/cms/internal/cmsclient"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/output"
)

func newArticlesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"a"},
		Short:   "Read articles from the CMS API",
	}

	var page, pageSize int
	list := &cobra.Command{
		Use:   "list",
		Short: "List articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.deps.cms(opts.logger())
			if err != nil {
				return err
			}
			res, err := c.ListArticles(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if err := printArticles(cmd.OutOrStdout(), res.Data); err != nil {
				return err
			}
			p := res.Meta.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d total\n", p.Page, p.PageCount, p.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 10, "articles per page")

	get := &cobra.Command{
		Use:   "get <slug>",
		Short: "Show one article with its relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.deps.cms(opts.logger())
			if err != nil {
				return err
			}
			res, err := c.GetArticleBySlug(cmd.Context(), args[0])
			if errors.Is(err, cmsclient.ErrNotFound) {
				return fmt.Errorf("no article with slug %q", args[0])
			}
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printArticle(cmd.OutOrStdout(), c, &res.Data)
			return nil
		},
	}

	var limit int
	featured := &cobra.Command{
		Use:   "featured",
		Short: "List featured articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.deps.cms(opts.logger())
			if err != nil {
				return err
			}
			res, err := c.GetFeaturedArticles(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printArticles(cmd.OutOrStdout(), res.Data)
		},
	}
	featured.Flags().IntVar(&limit, "limit", 3, "maximum number of articles")

	paths := &cobra.Command{
		Use:   "paths",
		Short: "Print the /blog/<slug> path of every article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.deps.cms(opts.logger())
			if err != nil {
				return err
			}
			slugs, err := c.ArticleSlugs(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), slugs)
			}
			for _, s := range slugs {
				fmt.Fprintln(cmd.OutOrStdout(), "/blog/"+s)
			}
			return nil
		},
	}

	cmd.AddCommand(list, get, featured, paths)
	return cmd
}

func printArticles(w io.Writer, articles []models.Article) error {
	tbl := output.NewTable(w, "slug", "title", "published", "featured")
	for _, a := range articles {
		featured := ""
		if a.Featured {
			featured = "yes"
		}
		tbl.AddRow(a.Slug, a.Title, cmsclient.FormatDate(a.PublishDate), featured)
	}
	return tbl.Render()
}

func printArticle(w io.Writer, c *cmsclient.Client, a *models.Article) {
	fmt.Fprintf(w, "%s\n", a.Title)
	if a.PublishDate != nil {
		fmt.Fprintf(w, "published  %s\n", cmsclient.FormatDate(a.PublishDate))
	}
	if a.Author != nil {
		fmt.Fprintf(w, "author     %s\n", a.Author.Name)
	}
	if a.FeaturedImage != nil {
		fmt.Fprintf(w, "image      %s (%s)\n", c.PublicImageURL(a.FeaturedImage.URL), cmsclient.ImageAlt(a.FeaturedImage, a.Title))
	}
	if a.SEO != nil {
		meta := c.MetaTags(a.SEO)
		fmt.Fprintf(w, "meta       %s | %s\n", meta.Title, meta.Description)
	}
	if a.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", a.Summary)
	}
}
