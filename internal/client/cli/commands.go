package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/depotkeeper/internal/client/services"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

func usage(name string) error {
	return fmt.Errorf("%w: %s", errUsage, commands[name].usage)
}

func cmdAnon(ctx context.Context, a *App, args []string) error {
	if err := a.auth.LoginAnonymous(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged on anonymously")
	return nil
}

// cmdLogin prompts for the account name (defaulting to the last one used),
// the password and an optional two-factor code.
func cmdLogin(ctx context.Context, a *App, args []string) error {
	username := ""
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		last, err := a.auth.LastUsername(ctx)
		if err != nil {
			return err
		}
		prompt := "Enter username"
		if last != "" {
			prompt = fmt.Sprintf("Enter username [%s]", last)
		}
		if username, err = getSimpleText(a.reader, prompt, a.out); err != nil {
			return err
		}
		if username == "" {
			username = last
		}
	}
	if username == "" {
		return usage("login")
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := getSimpleText(a.reader, "Two-factor code (empty if none)", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, username, password, code); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged on as %s\n", username)
	return nil
}

func cmdLogout(ctx context.Context, a *App, args []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged off")
	return nil
}

func cmdStatus(ctx context.Context, a *App, args []string) error {
	st := a.auth.Status()
	switch {
	case !st.LoggedOn:
		fmt.Fprintln(a.out, "Session: not logged on")
	case st.Anonymous:
		fmt.Fprintln(a.out, "Session: anonymous")
	default:
		fmt.Fprintf(a.out, "Session: %s\n", st.Username)
	}
	if m := a.Mode(); m != "" {
		fmt.Fprintf(a.out, "Gateway: %s\n", m)
	}
	loaded := a.loader.Loaded()
	fmt.Fprintf(a.out, "Loaded manifests: %d\n", len(loaded))
	for _, id := range loaded {
		fmt.Fprintf(a.out, "  %s\n", id)
	}
	return nil
}

func cmdFind(ctx context.Context, a *App, args []string) error {
	paths, err := a.store.Find(ctx)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(a.out, "No tickets in %s\n", a.store.Dir())
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(a.out, p)
	}
	return nil
}

// cmdLoad accepts a ticket path, a bundle path, an identity, or nothing, in
// which case the first ticket in the tickets directory is loaded.
func cmdLoad(ctx context.Context, a *App, args []string) error {
	var path string
	switch len(args) {
	case 0:
		last, err := a.store.Last(ctx)
		if err != nil {
			return err
		}
		if last != "" {
			path = last
			break
		}
		paths, err := a.store.Find(ctx)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no tickets in %s: %w", a.store.Dir(), common.ErrNotFound)
		}
		path = paths[0]
	case 1:
		path = args[0]
	case 3:
		id, err := parseIdentity(args)
		if err != nil {
			return err
		}
		if path, err = a.store.Locate(ctx, id); err != nil {
			return err
		}
	default:
		return usage("load")
	}

	if strings.EqualFold(filepath.Ext(path), ticket.BundleExt) {
		return a.loadBundle(ctx, path)
	}

	t, m, err := a.loader.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	a.remember(ctx, path)
	fmt.Fprintf(a.out, "Loaded %s: %d files, %d bytes\n", t.Identity(), len(m.Files()), m.TotalSize())
	return nil
}

func (a *App) loadBundle(ctx context.Context, path string) error {
	b, err := ticket.ReadBundleFile(path)
	if err != nil {
		return err
	}
	tickets, err := b.Tickets()
	if err != nil {
		return err
	}
	for _, t := range tickets {
		m, err := a.loader.Load(ctx, t)
		if err != nil {
			fmt.Fprintf(a.out, "  %d: %v\n", t.DepotID, err)
			continue
		}
		fmt.Fprintf(a.out, "Loaded %s: %d files\n", t.Identity(), len(m.Files()))
	}
	return nil
}

// cmdMake builds a ticket, saves it and loads it. Without an explicit code
// a manifest request code is obtained from the gateway first.
func cmdMake(ctx context.Context, a *App, args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return usage("make")
	}
	id, err := parseIdentity(args[:3])
	if err != nil {
		return err
	}

	var t *ticket.Ticket
	if len(args) == 4 {
		code, perr := strconv.ParseUint(args[3], 10, 64)
		if perr != nil {
			return fmt.Errorf("bad request code %q", args[3])
		}
		t, err = a.builder.Build(ctx, id, code)
	} else {
		t, err = a.builder.Make(ctx, id)
	}
	if err != nil {
		return err
	}

	path, err := a.store.Save(ctx, t)
	if err != nil {
		return err
	}
	if _, err := a.loader.Load(ctx, t); err != nil {
		return err
	}
	a.remember(ctx, path)
	fmt.Fprintf(a.out, "Ticket written to %s\n", path)
	return nil
}

func cmdBulk(ctx context.Context, a *App, args []string) error {
	if len(args) != 1 {
		return usage("bulk")
	}
	appID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("bad app id %q", args[0])
	}

	out, buildErr := a.bulk.BuildAll(ctx, uint32(appID), services.DefaultRedistributables)
	if out == nil {
		return buildErr
	}

	for _, r := range out.Results {
		switch {
		case r.Redistributable:
			fmt.Fprintf(a.out, "  %-8d %-30s redistributable\n", r.DepotID, r.Name)
		case r.Err != nil:
			fmt.Fprintf(a.out, "  %-8d %-30s FAILED: %v\n", r.DepotID, r.Name, r.Err)
		default:
			path, err := a.store.Save(ctx, r.Ticket)
			if err != nil {
				fmt.Fprintf(a.out, "  %-8d %-30s FAILED: %v\n", r.DepotID, r.Name, err)
				continue
			}
			fmt.Fprintf(a.out, "  %-8d %-30s %s\n", r.DepotID, r.Name, filepath.Base(path))
		}
	}

	path, err := a.store.SaveBundle(ctx, out.Bundle)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Bundle written to %s (%d tickets, %d failed)\n",
		path, len(out.Tickets()), len(out.Failed()))
	return buildErr
}

// cmdDownload downloads one manifest, loading its ticket from disk if it is
// not in the cache yet, or every loaded manifest when no id is given.
func cmdDownload(ctx context.Context, a *App, args []string) error {
	var ids []ticket.Identity
	switch len(args) {
	case 0:
		ids = a.loader.Loaded()
		if len(ids) == 0 {
			return fmt.Errorf("nothing loaded, use 'load' first: %w", common.ErrNotFound)
		}
	case 1, 3:
		id, err := parseIdentity(args)
		if err != nil {
			return err
		}
		if err := a.ensureLoaded(ctx, id); err != nil {
			return err
		}
		ids = []ticket.Identity{id}
	default:
		return usage("download")
	}

	var failed int
	for _, id := range ids {
		fmt.Fprintf(a.out, "Downloading %s into %s\n", id, a.downloads.Destination(id.AppID))
		r, err := a.downloads.Download(ctx, id)
		if err != nil {
			fmt.Fprintf(a.out, "  %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(a.out, "  %s\n", r)
		for _, f := range r.Failed {
			fmt.Fprintf(a.out, "  failed %s: %v\n", f.Path, f.Err)
		}
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads incomplete, run again to resume", failed, len(ids))
	}
	return nil
}

func (a *App) ensureLoaded(ctx context.Context, id ticket.Identity) error {
	for _, loaded := range a.loader.Loaded() {
		if loaded == id {
			return nil
		}
	}
	path, err := a.store.Locate(ctx, id)
	if err != nil {
		return err
	}
	if _, _, err = a.loader.LoadFile(ctx, path); err != nil {
		return err
	}
	a.remember(ctx, path)
	return nil
}

// remember records path as the default for a bare 'load'. Failures only
// cost the default, so they are logged.
func (a *App) remember(ctx context.Context, path string) {
	if err := a.store.Remember(ctx, path); err != nil {
		a.logger.Warn(ctx, "failed to remember last ticket", "path", path, "error", err)
	}
}

func cmdTickets(ctx context.Context, a *App, args []string) error {
	recs, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No tickets indexed, try 'find'")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(a.out, "%-40s %s\n", r.Identity, r.Path)
	}
	return nil
}

func cmdHistory(ctx context.Context, a *App, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("history")
		}
		limit = n
	}
	runs, err := a.downloads.History(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		state := "running"
		if r.FinishedAt != nil {
			state = fmt.Sprintf("fetched=%d resumed=%d skipped=%d failed=%d",
				r.Counters.Fetched, r.Counters.Resumed, r.Counters.Skipped, r.Counters.Failed)
		}
		fmt.Fprintf(a.out, "%s  %s  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Identity, state)
	}
	return nil
}

// parseIdentity accepts "app depot manifest" as three words or as the
// single underscore-joined form used in ticket file names.
func parseIdentity(args []string) (ticket.Identity, error) {
	if len(args) == 1 {
		args = strings.Split(strings.TrimSuffix(args[0], ticket.Ext), "_")
	}
	if len(args) != 3 {
		return ticket.Identity{}, fmt.Errorf("%w: want app depot manifest", errUsage)
	}
	app, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return ticket.Identity{}, fmt.Errorf("bad app id %q", args[0])
	}
	depot, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return ticket.Identity{}, fmt.Errorf("bad depot id %q", args[1])
	}
	man, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return ticket.Identity{}, fmt.Errorf("bad manifest id %q", args[2])
	}
	return ticket.Identity{AppID: uint32(app), DepotID: uint32(depot), ManifestID: man}, nil
}
