package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/bookreader/internal/config"
	"github.com/mrlokans/bookreader/internal/content"
	"github.com/mrlokans/bookreader/internal/database"
	"github.com/mrlokans/bookreader/internal/database/books"
	"github.com/mrlokans/bookreader/internal/entities"
	"github.com/mrlokans/bookreader/internal/reader"
)

type ImportBookCommand struct {
	File         string
	Title        string
	Author       string
	Description  string
	CoverImage   string
	DatabasePath string
	PageSize     int
}

func NewImportBookCommand() *ImportBookCommand {
	return &ImportBookCommand{}
}

func (cmd *ImportBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-book", flag.ExitOnError)

	fs.StringVar(&cmd.File, "file", "", "Path to a plain-text book (required)")
	fs.StringVar(&cmd.Title, "title", "", "Book title (default: derived from the file name)")
	fs.StringVar(&cmd.Author, "author", "Unknown", "Book author")
	fs.StringVar(&cmd.Description, "description", "", "Short description")
	fs.StringVar(&cmd.CoverImage, "cover", "", "Cover image URL")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.PageSize, "page-size", reader.DefaultTargetPageSize, "Target characters per page, used for the summary")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-book [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a UTF-8 or UTF-16 text file as a readable book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-book -file ./moby_dick.txt -author \"Herman Melville\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-book -file ./notes.txt -title \"Notes\" -db ./my-books.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}

	return nil
}

func (cmd *ImportBookCommand) Run() error {
	text, err := content.LoadFile(cmd.File)
	if err != nil {
		return err
	}

	title := cmd.Title
	if title == "" {
		title = content.TitleFromPath(cmd.File)
	}
	description := cmd.Description
	if description == "" {
		description = fmt.Sprintf("Imported from %s", cmd.File)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	book := &entities.Book{
		Title:       title,
		Author:      cmd.Author,
		Description: description,
		CoverImage:  cmd.CoverImage,
		Content:     text,
	}
	if err := books.NewRepository(db.DB).CreateBook(book); err != nil {
		return err
	}

	layout := reader.ComputeLayout(content.Length(text), cmd.PageSize)
	fmt.Printf("Imported \"%s\" by %s as book %d\n", book.Title, book.Author, book.ID)
	fmt.Printf("%d characters, %d pages of %d characters\n", content.Length(text), layout.PageCount, layout.PageSize)
	return nil
}
