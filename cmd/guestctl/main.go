// Command guestctl manages the guest list from the command line.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/config"
	"github.com/shaadi-rsvp/shaadi/internal/csvio"
	"github.com/shaadi-rsvp/shaadi/internal/database"
	"github.com/shaadi-rsvp/shaadi/internal/logging"
	"github.com/shaadi-rsvp/shaadi/internal/push"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

const usage = `usage: guestctl <command> [flags]

commands:
  import [-update] [-dry-run] FILE   import parties from a CSV file
  export [-o FILE]                   write the guest list as CSV
  codes [-o FILE]                    write the code sheet as CSV
  organizer add -email E -name N     create an organizer (password read from stdin)
  vapid-keys                         print a new key pair for push alerts
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "import":
		err = runImport(cfg, args)
	case "export":
		err = runExport(cfg, args, false)
	case "codes":
		err = runExport(cfg, args, true)
	case "organizer":
		err = runOrganizer(cfg, args)
	case "vapid-keys":
		err = runVAPIDKeys()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (*store.PartyStore, func(), error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store.NewPartyStore(db), func() { db.Close() }, nil
}

func runImport(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	update := fs.Bool("update", false, "update parties that already exist")
	dryRun := fs.Bool("dry-run", false, "report what would change without writing")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("import needs exactly one CSV file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	rows, rowErrs, err := csvio.ParseImport(f)
	if err != nil {
		return err
	}

	parties, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := csvio.NewImporter(parties).Run(rows, csvio.Options{Update: *update, DryRun: *dryRun})
	for _, e := range append(rowErrs, res.Errors...) {
		fmt.Fprintln(os.Stderr, e.String())
	}
	prefix := ""
	if res.DryRun {
		prefix = "dry run: "
	}
	fmt.Printf("%screated %d, updated %d, skipped %d, errors %d\n",
		prefix, res.Created, res.Updated, res.Skipped, len(rowErrs)+len(res.Errors))
	return err
}

func runExport(cfg config.Config, args []string, codes bool) error {
	name := "export"
	if codes {
		name = "codes"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	out := fs.String("o", "", "output file (default stdout)")
	fs.Parse(args)

	parties, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	list, err := parties.List()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if codes {
		return csvio.CodeSheet(w, list, cfg.BaseURL)
	}
	return csvio.Export(w, list)
}

func runOrganizer(cfg config.Config, args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return fmt.Errorf("usage: guestctl organizer add -email E -name N")
	}
	fs := flag.NewFlagSet("organizer add", flag.ExitOnError)
	emailAddr := fs.String("email", "", "organizer email")
	name := fs.String("name", "", "display name")
	fs.Parse(args[1:])
	if *emailAddr == "" {
		return fmt.Errorf("-email is required")
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	org, err := store.NewOrganizerStore(db).Create(*emailAddr, *name, password)
	if err != nil {
		return err
	}
	fmt.Printf("organizer %d created for %s\n", org.ID, org.Email)
	return nil
}

func runVAPIDKeys() error {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	fmt.Printf("SHAADI_VAPID_PUBLIC_KEY=%s\nSHAADI_VAPID_PRIVATE_KEY=%s\n", pub, priv)
	return nil
}
