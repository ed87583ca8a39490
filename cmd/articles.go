package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/blogdesk/blogdesk/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagTitle   string
	flagContent string
	flagImage   string
	flagYes     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all articles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		articles, err := e.client.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading articles: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(articles) == 0 {
			fmt.Fprintln(w, "No articles available")
			return nil
		}
		for _, a := range articles {
			fmt.Fprintf(w, "%-24s  %-26s  %s\n", a.ID, article.FormatDate(a.CreatedAt), article.Truncate(a.Title, 60))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one article in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if err := article.ValidateID(id); err != nil {
			return err
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		a, err := e.client.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("fetching article: %w", err)
		}
		printArticle(cmd.OutOrStdout(), a, e.cfg.ImageLink(a.Image))
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an article",
	Long: `Create an article from --title and --content, then upload --image if given.

An image upload failure does not undo the create.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, content := strings.TrimSpace(flagTitle), strings.TrimSpace(flagContent)
		if err := article.ValidateFields(title, content); err != nil {
			return err
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		a, err := e.client.Create(cmd.Context(), title, content)
		id := ""
		if a != nil {
			id = a.ID
		}
		e.record(store.OpCreate, id, title, err)
		if err != nil {
			return fmt.Errorf("creating article: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created article %s\n", a.ID)

		return uploadIfSet(cmd, e, a.ID, title, flagImage)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace an article's title and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if err := article.ValidateID(id); err != nil {
			return err
		}
		title, content := strings.TrimSpace(flagTitle), strings.TrimSpace(flagContent)
		if err := article.ValidateFields(title, content); err != nil {
			return err
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		_, err = e.client.Update(cmd.Context(), id, title, content)
		e.record(store.OpUpdate, id, title, err)
		if err != nil {
			return fmt.Errorf("updating article: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated article %s\n", id)

		return uploadIfSet(cmd, e, id, title, flagImage)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if err := article.ValidateID(id); err != nil {
			return err
		}

		if !flagYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete article %s? [y/N] ", id)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		_, err = e.client.Delete(cmd.Context(), id)
		e.record(store.OpDelete, id, "", err)
		if err != nil {
			return fmt.Errorf("deleting article: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted article %s\n", id)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <id> <file>",
	Short: "Upload an image for an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if err := article.ValidateID(id); err != nil {
			return err
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		return uploadIfSet(cmd, e, id, "", args[1])
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the API is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("API offline: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API online (%s)\n", e.client.BaseURL())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVar(&flagTitle, "title", "", "article title (required)")
		c.Flags().StringVar(&flagContent, "content", "", "article content (required)")
		c.Flags().StringVar(&flagImage, "image", "", "image file to upload after saving")
	}
	deleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the confirmation prompt")
}

func uploadIfSet(cmd *cobra.Command, e *env, id, title, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	res, err := e.client.UploadFile(cmd.Context(), id, path)
	e.record(store.OpUpload, id, title, err)
	if err != nil {
		return fmt.Errorf("uploading image for %s: %w", id, err)
	}
	name := path
	if res.Article != nil && res.Article.Image != "" {
		name = res.Article.Image
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded image %s\n", name)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printArticle(w io.Writer, a *article.Article, imageLink string) {
	fmt.Fprintln(w, a.Title)
	fmt.Fprintln(w, strings.Repeat("=", min(len([]rune(a.Title)), 72)))
	fmt.Fprintf(w, "ID:      %s\n", a.ID)
	fmt.Fprintf(w, "Date:    %s\n", article.FormatDate(a.CreatedAt))
	fmt.Fprintf(w, "Image:   %s\n", a.ImageLabel())
	if a.HasImage() && imageLink != "" {
		fmt.Fprintf(w, "Link:    %s\n", imageLink)
	}
	fmt.Fprintf(w, "Length:  %s\n", article.ReadTime(a.ContentText()))
	fmt.Fprintf(w, "Slug:    %s\n\n", article.Slug(a.Title))
	fmt.Fprintln(w, a.Content)
}
