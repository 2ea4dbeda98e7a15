package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/pkg/util/ticketid"
)

// Usage prints the command summary.
func Usage(w io.Writer) {
	fmt.Fprintln(w, `usage: grievancectl <command> [flags]

commands:
  token       issue a bearer token (--actor-id, --actor-type admin|officer|citizen|system)
  ticket      parse a ticket id (ticket <id>)
  migrations  list embedded migrations`)
}

// Dispatch runs one command.
func Dispatch(args []string, out io.Writer) error {
	if len(args) == 0 {
		Usage(os.Stderr)
		return errors.New("command required")
	}
	switch args[0] {
	case "token":
		return tokenCmd(args[1:], out)
	case "ticket":
		return ticketCmd(args[1:], out)
	case "migrations":
		return migrationsCmd(out)
	case "help", "-h", "--help":
		Usage(out)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func tokenCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("grievancectl token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	actorID := fs.String("actor-id", "", "actor id recorded on ledger entries")
	actorType := fs.String("actor-type", string(domain.ActorOfficer), "admin|officer|citizen|system")
	secret := fs.String("secret", "", "signing secret (default AUTH_JWT_SECRET)")
	ttl := fs.Int("ttl-minutes", 0, "token lifetime (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*actorID) == "" {
		return errors.New("--actor-id required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *secret == "" {
		*secret = cfg.Auth.JWTSecret
	}
	if *ttl <= 0 {
		*ttl = cfg.Auth.AccessTokenTTLMinutes
	}

	tm := auth.NewTokenManager(*secret, *ttl)
	token, expiresAt, err := tm.GenerateToken(strings.TrimSpace(*actorID), domain.ActorType(strings.ToLower(*actorType)))
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func ticketCmd(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: grievancectl ticket <id>")
	}
	id := strings.ToUpper(strings.TrimSpace(args[0]))
	parsed, ok := ticketid.Parse(id)
	if !ok {
		return fmt.Errorf("%q is not a ticket id", args[0])
	}
	return writeJSON(out, map[string]any{
		"ticket_id": id,
		"date":      parsed.Date.Format("2006-01-02"),
		"suffix":    parsed.Suffix,
	})
}

func migrationsCmd(out io.Writer) error {
	names, err := persistence.MigrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
