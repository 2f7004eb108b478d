// Command publisher loads content into the gateway: it publishes depot
// directories and manages the accounts that may read them.
//
// Usage:
//
//	publisher [gateway flags] publish -app 480 -depot 481 -dir ./build [-name N] [-free] ...
//	publisher [gateway flags] adduser -user gaben [-guard CODE]
//	publisher [gateway flags] grant -user gaben -app 480
//
// Gateway flags (-d, -u, -p, -b, -g, -e, -l, -c) are the server's.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/depotkeeper/internal/client/cli"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/flagx"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/server"
	"github.com/dmitrijs2005/depotkeeper/internal/server/config"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
)

var errUsage = errors.New("usage: publisher [flags] publish|adduser|grant [command flags]")

var publishFlags = []string{"-app", "-name", "-free", "-depot", "-depotname", "-oslist", "-manifest", "-code", "-dir"}

var userFlags = []string{"-user", "-password", "-guard", "-app"}

// getPassword is an indirection used to facilitate testing.
var getPassword = cli.GetPassword

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func subcommand(args []string) string {
	for _, a := range args {
		switch a {
		case "publish", "adduser", "grant":
			return a
		}
	}
	return ""
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd := subcommand(args)
	if cmd == "" {
		return errUsage
	}

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, "text", os.Stderr)

	db, m, err := server.OpenCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "publish":
		req, err := parsePublishArgs(args)
		if err != nil {
			return err
		}
		svc := services.NewPublishService(db, m, server.NewStore(cfg), logger)
		res, err := svc.Publish(ctx, *req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Published %d_%d_%d: %d files, %d dirs, %d uploaded, %d bytes\n",
			req.AppID, req.DepotID, res.ManifestID, res.Files, res.Dirs, res.Uploaded, res.Size)
		return nil

	case "adduser":
		u, err := parseUserArgs(args)
		if err != nil {
			return err
		}
		password := []byte(u.password)
		if len(password) == 0 {
			if password, err = getPassword(out); err != nil {
				return err
			}
		}
		defer common.WipeByteArray(password)

		salt, verifier := services.MakeCredentials(password)
		user, err := services.NewUserService(db, m, cfg).Register(ctx, u.name, salt, verifier, u.guard)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created user %s (%s)\n", user.UserName, user.ID)
		return nil

	default:
		u, err := parseUserArgs(args)
		if err != nil {
			return err
		}
		if u.app == 0 {
			return fmt.Errorf("%w: grant needs -user and -app", errUsage)
		}
		if err := services.NewUserService(db, m, cfg).Grant(ctx, u.name, u.app); err != nil {
			return err
		}
		fmt.Fprintf(out, "Granted app %d to %s\n", u.app, u.name)
		return nil
	}
}

func parsePublishArgs(args []string) (*services.PublishRequest, error) {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	req := &services.PublishRequest{}
	var app, depot uint
	fs.UintVar(&app, "app", 0, "app id")
	fs.StringVar(&req.AppName, "name", "", "app name")
	fs.BoolVar(&req.Free, "free", false, "readable by every session")
	fs.UintVar(&depot, "depot", 0, "depot id")
	fs.StringVar(&req.DepotName, "depotname", "", "depot name")
	fs.StringVar(&req.OSList, "oslist", "windows", "comma separated platforms")
	fs.Uint64Var(&req.ManifestID, "manifest", 0, "manifest id (0 derives one from the content)")
	fs.BoolVar(&req.RequiresCode, "code", false, "manifest needs a request code")
	fs.StringVar(&req.Dir, "dir", "", "directory to publish")

	if err := fs.Parse(flagx.FilterArgs(args, publishFlags)); err != nil {
		return nil, err
	}
	if app == 0 || depot == 0 || req.Dir == "" {
		return nil, fmt.Errorf("%w: publish needs -app, -depot and -dir", errUsage)
	}
	if app > 1<<32-1 || depot > 1<<32-1 {
		return nil, fmt.Errorf("%w: ids must fit in 32 bits", errUsage)
	}
	req.AppID, req.DepotID = uint32(app), uint32(depot)
	if req.AppName == "" {
		req.AppName = fmt.Sprintf("App %d", app)
	}
	if req.DepotName == "" {
		req.DepotName = fmt.Sprintf("%s Content", req.AppName)
	}
	return req, nil
}

type userArgs struct {
	name     string
	password string
	guard    string
	app      uint32
}

func parseUserArgs(args []string) (*userArgs, error) {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	u := &userArgs{}
	var app uint
	fs.StringVar(&u.name, "user", "", "account name")
	fs.StringVar(&u.password, "password", "", "password (prompted when empty)")
	fs.StringVar(&u.guard, "guard", "", "two-factor code required at login")
	fs.UintVar(&app, "app", 0, "app id")

	if err := fs.Parse(flagx.FilterArgs(args, userFlags)); err != nil {
		return nil, err
	}
	u.name = strings.TrimSpace(u.name)
	if u.name == "" {
		return nil, fmt.Errorf("%w: -user is required", errUsage)
	}
	if app > 1<<32-1 {
		return nil, fmt.Errorf("%w: app id must fit in 32 bits", errUsage)
	}
	u.app = uint32(app)
	return u, nil
}
