// Command clinic is the terminal front-end for clinic staff. It talks to the
// clinic backend directly and runs the same workflows as the gateway.
//
// Usage:
//
//	clinic [-user name -role doctor] <command> [args]
//
// Commands:
//
//	appointments [today|upcoming|past|all] [-status s] [-sort asc|desc]
//	stats
//	status <appointment-id> <completed|missed|cancelled>
//	complete <appointment-id>
//	records <patient-id>
//	delete-prescription <consultation-id> <prescription-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/clinicapi"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	flagUser string
	flagRole string
)

func init() {
	flag.StringVar(&flagUser, "user", os.Getenv("CLINIC_USERNAME"), "login name (CLINIC_USERNAME)")
	flag.StringVar(&flagRole, "role", envOr("CLINIC_ROLE", auth.RoleDoctor), "login role: doctor, nurse or admin (CLINIC_ROLE)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: clinic [flags] <appointments|stats|status|complete|records|delete-prescription> [args]\n")
		flag.PrintDefaults()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logCfg := logging.LoadConfig()
	if os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, apperror.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, args []string, in io.Reader, out io.Writer) error {
	api, err := clinicapi.New(clinicapi.LoadConfig(), logger)
	if err != nil {
		return err
	}

	ctx, err = login(ctx, api, flagRole, flagUser, os.Getenv("CLINIC_PASSWORD"))
	if err != nil {
		return err
	}

	app := newApp(api, logger, in, out)
	return app.dispatch(ctx, args)
}

// login authenticates against the backend and returns a context acting as
// the logged-in user.
func login(ctx context.Context, backend auth.Backend, role, username, password string) (context.Context, error) {
	if username == "" || password == "" {
		return ctx, apperror.Validation("set -user and CLINIC_PASSWORD to log in")
	}
	req := auth.LoginRequest{Role: role, Username: username, Password: password}
	if err := apperror.ValidateStruct(req); err != nil {
		return ctx, err
	}
	res, err := backend.Login(ctx, req)
	if err != nil {
		return ctx, err
	}
	if res.Restricted {
		return ctx, apperror.Restricted(res.Message)
	}
	if res.Role == "" {
		res.Role = role
	}
	return auth.ContextWithPrincipal(ctx, &auth.Principal{UserID: res.UserID, Role: res.Role, Name: res.Name}), nil
}
