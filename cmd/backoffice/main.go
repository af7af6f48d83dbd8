// Command backoffice is the El Patio administration console: session
// management, live dashboard monitoring, entity listings and configuration
// editing against the platform backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/elpatio/backoffice/internal/api"
	"github.com/elpatio/backoffice/internal/auth"
	"github.com/elpatio/backoffice/internal/config"
	"github.com/elpatio/backoffice/internal/permissions"
	"github.com/elpatio/backoffice/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: backoffice [-config path] <command> [flags]

Commands:
  login      -email <addr> [-password <pw>]   authenticate and store the session token
  logout                                      clear the stored session
  whoami                                      show the current session identity
  watch      [-metrics-addr <host:port>]      follow the live dashboard
  stats      [-from <date>] [-to <date>]      aggregate statistics
  admins     list                             administrator accounts
  cashiers   list                             cashier accounts
  tx         list [-type t] [-status s] ...   transaction listing
  config     list|get|set                     general settings
  payments   list|set                         payment configuration
`)
}

// env holds everything a subcommand needs.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	session *auth.Session
	client  *api.Client
}

func main() {
	configPath := flag.String("config", "backoffice.yaml", "path to configuration file")
	envFile := flag.String("env", "", "optional .env file to load")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env (%s): %v", *envFile, err)
		}
	}

	cfg := config.LoadOrDefault(*configPath)
	appLog := logger.NewDefault("backoffice")
	appLog.SetLevel(cfg.Log.Level)

	tokenPath, err := auth.DefaultTokenPath()
	if err != nil {
		log.Fatalf("resolve token path: %v", err)
	}
	session, err := auth.NewSession(auth.Config{
		BaseURL: cfg.Backend.URL,
		Store:   auth.NewFileTokenStore(tokenPath),
		Logger:  appLog.WithField("module", "auth"),
	})
	if err != nil {
		log.Fatalf("init session: %v", err)
	}

	client, err := api.New(api.Config{
		BaseURL:           cfg.Backend.URL,
		Tokens:            session,
		OnUnauthorized:    session.Logout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Logger:            appLog.WithField("module", "api"),
	})
	if err != nil {
		log.Fatalf("init api client: %v", err)
	}

	e := &env{cfg: cfg, log: appLog, session: session, client: client}
	args := flag.Args()[1:]

	switch flag.Arg(0) {
	case "login":
		err = cmdLogin(e, args)
	case "logout":
		session.Logout()
		fmt.Println("session cleared")
	case "whoami":
		err = cmdWhoami(e)
	case "watch":
		err = cmdWatch(e, args)
	case "stats":
		err = cmdStats(e, args)
	case "admins":
		err = cmdAdmins(e, args)
	case "cashiers":
		err = cmdCashiers(e, args)
	case "tx":
		err = cmdTransactions(e, args)
	case "config":
		err = cmdConfig(e, args)
	case "payments":
		err = cmdPayments(e, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func cmdLogin(e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (prompted when omitted)")
	fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimSpace(line)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Backend.Timeout)
	defer cancel()
	if err := e.session.Login(ctx, *email, pw); err != nil {
		return err
	}

	info, err := e.session.UserInfo()
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", info.Email, info.Role)
	return nil
}

func cmdWhoami(e *env) error {
	if !e.session.IsAuthenticated() {
		return auth.ErrNotAuthenticated
	}
	info, err := e.session.UserInfo()
	if err != nil {
		return err
	}
	fmt.Printf("%s\trole=%s\tlevel=%d\n", info.Email, info.Role, permissions.Level(info.Role))
	return nil
}

func cmdStats(e *env, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	fs.Parse(args)

	ctx, cancel := opCtx(e)
	defer cancel()

	var (
		stats api.GlobalStats
		err   error
	)
	if *from != "" || *to != "" {
		stats, err = e.client.StatsByDate(ctx, *from, *to)
	} else {
		stats, err = e.client.GlobalStats(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "players\t%d\n", stats.TotalPlayers)
	fmt.Fprintf(w, "cashiers\t%d\n", stats.TotalCashiers)
	fmt.Fprintf(w, "transactions\t%d\n", stats.TotalTransactions)
	fmt.Fprintf(w, "volume\t%d\n", stats.TotalVolume)
	fmt.Fprintf(w, "pending withdrawals\t%d\n", stats.PendingWithdrawals)
	return w.Flush()
}

func cmdAdmins(e *env, args []string) error {
	if len(args) < 1 || args[0] != "list" {
		return fmt.Errorf("usage: admins list")
	}
	if err := requirePermission(e, permissions.AdminsView); err != nil {
		return err
	}

	ctx, cancel := opCtx(e)
	defer cancel()
	admins, err := e.client.Admins(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, a := range admins {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", a.ID, a.FullName, a.Email, a.Role, a.Active)
	}
	return w.Flush()
}

func cmdCashiers(e *env, args []string) error {
	if len(args) < 1 || args[0] != "list" {
		return fmt.Errorf("usage: cashiers list")
	}
	if err := requirePermission(e, permissions.CashiersView); err != nil {
		return err
	}

	ctx, cancel := opCtx(e)
	defer cancel()
	cashiers, err := e.client.Cashiers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tACTIVE")
	for _, c := range cashiers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", c.ID, c.FullName, c.Email, c.ContactPhone, c.Active)
	}
	return w.Flush()
}

func cmdTransactions(e *env, args []string) error {
	if len(args) < 1 || args[0] != "list" {
		return fmt.Errorf("usage: tx list [flags]")
	}
	fs := flag.NewFlagSet("tx list", flag.ExitOnError)
	txType := fs.String("type", "", "transaction type")
	category := fs.String("category", "", "transaction category")
	status := fs.String("status", "", "transaction status")
	from := fs.String("from", "", "start date")
	to := fs.String("to", "", "end date")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	fs.Parse(args[1:])

	if err := requirePermission(e, permissions.TransactionsView); err != nil {
		return err
	}

	ctx, cancel := opCtx(e)
	defer cancel()
	result, err := e.client.Transactions(ctx, api.TransactionFilters{
		Type:     *txType,
		Category: *category,
		Status:   *status,
		From:     *from,
		To:       *to,
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tAMOUNT\tCREATED")
	for _, tx := range result.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			tx.ID, tx.Type, tx.Status, tx.Amount, tx.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
	fmt.Printf("page %d/%d (%d total)\n",
		result.Pagination.Page, result.Pagination.TotalPages, result.Pagination.Total)
	return nil
}

func requirePermission(e *env, perm permissions.Permission) error {
	info, err := e.session.UserInfo()
	if err != nil {
		return err
	}
	if !permissions.Allowed(info.Role, perm) {
		return fmt.Errorf("role %s lacks permission %s", info.Role, perm)
	}
	return nil
}

func opCtx(e *env) (context.Context, context.CancelFunc) {
	timeout := e.cfg.Backend.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
