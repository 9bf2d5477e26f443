package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/bookreader/internal/content"
	"github.com/mrlokans/bookreader/internal/reader"
)

// previewLength is how many characters of each page are printed.
const previewLength = 40

type PaginateCommand struct {
	File     string
	PageSize int
	Preview  bool

	out io.Writer
}

func NewPaginateCommand() *PaginateCommand {
	return &PaginateCommand{out: os.Stdout}
}

func (cmd *PaginateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("paginate", flag.ExitOnError)

	fs.StringVar(&cmd.File, "file", "", "Path to a plain-text book (required)")
	fs.IntVar(&cmd.PageSize, "page-size", reader.DefaultTargetPageSize, "Target characters per page")
	fs.BoolVar(&cmd.Preview, "preview", false, "Print the first characters of every page")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s paginate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show how a text file is split into pages and where each page starts in percent.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	if cmd.PageSize <= 0 {
		return fmt.Errorf("page-size must be positive, got %d", cmd.PageSize)
	}

	return nil
}

func (cmd *PaginateCommand) Run() error {
	text, err := content.LoadFile(cmd.File)
	if err != nil {
		return err
	}
	cmd.print(content.Runes(text))
	return nil
}

func (cmd *PaginateCommand) print(runes []rune) {
	layout := reader.ComputeLayout(len(runes), cmd.PageSize)

	fmt.Fprintf(cmd.out, "Characters: %d\n", len(runes))
	fmt.Fprintf(cmd.out, "Pages: %d of %d characters (target %d)\n\n", layout.PageCount, layout.PageSize, cmd.PageSize)

	for page := 0; page < layout.PageCount; page++ {
		start, end := layout.PageRange(page)
		fmt.Fprintf(cmd.out, "%4d  [%d, %d)  starts at %6.2f%%", page+1, start, end, reader.PositionFromPageIndex(page, layout.PageCount))
		if cmd.Preview {
			fmt.Fprintf(cmd.out, "  %q", preview(layout.PageText(runes, page)))
		}
		fmt.Fprintln(cmd.out)
	}
}

func preview(page string) string {
	page = strings.Join(strings.Fields(page), " ")
	runes := []rune(page)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return page
}
