package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/bookreader/internal/config"
	"github.com/mrlokans/bookreader/internal/database"
	"github.com/mrlokans/bookreader/internal/database/users"
)

// CreateUserCommand registers a reader and prints the API token used with AUTH_MODE=token.
type CreateUserCommand struct {
	Username     string
	Email        string
	DatabasePath string
	Rotate       bool
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required unless -rotate)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Rotate, "rotate", false, "Issue a new token for an existing user instead")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a reader account and print its API token.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice -email alice@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice -rotate\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("username is required")
	}
	if cmd.Email == "" && !cmd.Rotate {
		fs.Usage()
		return fmt.Errorf("email is required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	repo := users.NewRepository(db.DB)

	if cmd.Rotate {
		user, err := repo.GetUserByUsername(cmd.Username)
		if err != nil {
			return fmt.Errorf("user %q not found: %w", cmd.Username, err)
		}
		token, err := repo.RotateToken(user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("New API token for %s (id %d):\n%s\n", user.Username, user.ID, token)
		return nil
	}

	user, err := repo.CreateUser(cmd.Username, cmd.Email)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s (id %d). API token:\n%s\n", user.Username, user.ID, user.Token)
	return nil
}
