// README: Subcommand dispatch and table output for vdrop-admin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"vdrop/internal/console"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

var errUsage = errors.New("invalid arguments; run with -h for usage")

func run(ctx context.Context, backend console.Backend, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "stats":
		c := console.New(backend, console.PickupFilter{}, console.UserFilter{})
		if err := c.Pickups.Refresh(ctx); err != nil {
			return err
		}
		printStats(out, c.Stats())
		return nil

	case "pickups":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var f console.PickupFilter
		fs.StringVar(&f.Status, "status", "", "exact status")
		fs.StringVar(&f.Query, "q", "", "search address, owner, or id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c := console.New(backend, f, console.UserFilter{})
		if err := c.Pickups.Refresh(ctx); err != nil {
			return err
		}
		printPickups(out, c.Pickups.Rows())
		printStats(out, c.Stats())
		return nil

	case "transition":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c := console.New(backend, console.PickupFilter{}, console.UserFilter{})
		if err := c.Pickups.Refresh(ctx); err != nil {
			return err
		}
		if err := c.TransitionPickup(ctx, id, args[1]); err != nil {
			return err
		}
		printStats(out, c.Stats())
		return nil

	case "users":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var f console.UserFilter
		fs.StringVar(&f.Role, "role", "", "exact role")
		fs.StringVar(&f.Query, "q", "", "search name or phone")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c := console.New(backend, console.PickupFilter{}, f)
		if err := c.Users.Refresh(ctx); err != nil {
			return err
		}
		printUsers(out, c.Users.Rows())
		return nil

	case "set-role":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c := console.New(backend, console.PickupFilter{}, console.UserFilter{})
		if err := c.Users.Refresh(ctx); err != nil {
			return err
		}
		if err := c.SetRole(ctx, id, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is now %s\n", id, args[1])
		return nil

	case "deactivate":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c := console.New(backend, console.PickupFilter{}, console.UserFilter{})
		if err := c.Users.Refresh(ctx); err != nil {
			return err
		}
		if err := c.Deactivate(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s deactivated\n", id)
		return nil

	case "invite":
		// Accept the email before or after the flags.
		var email string
		if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
			email, args = args[0], args[1:]
		}
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var inv profile.InviteCommand
		fs.StringVar(&inv.FullName, "name", "", "full name")
		fs.StringVar(&inv.Role, "role", "", "initial role (default customer)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if email == "" && fs.NArg() == 1 {
			email = fs.Arg(0)
		}
		if email == "" {
			return errUsage
		}
		inv.Email = email
		c := console.New(backend, console.PickupFilter{}, console.UserFilter{})
		p, err := c.Invite(ctx, inv)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "invited %s as %s (%s)\n", p.Email, p.Role, p.ID)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseID(v string) (types.ID, error) {
	id, ok := types.ParseID(v)
	if !ok {
		return "", fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

func printStats(out io.Writer, st pickup.Stats) {
	fmt.Fprintf(out, "pending=%d active=%d completed=%d cancelled=%d total=%d revenue=%s\n",
		st.Pending, st.Active, st.Completed, st.Cancelled, st.Total, st.RevenueMoney())
}

func printPickups(out io.Writer, rows []pickup.Pickup) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSERVICE\tPRICE\tDATE\tOWNER\tADDRESS")
	for _, p := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s %s\t%s\t%s\n",
			p.ID, p.Status, p.ServiceType, p.Price, p.PickupDate, p.PickupTime, deref(p.OwnerName), p.PickupAddress)
	}
	_ = w.Flush()
}

func printUsers(out io.Writer, rows []profile.Profile) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROLE\tNAME\tEMAIL\tPHONE")
	for _, p := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Role, p.FullName, p.Email, deref(p.Phone))
	}
	_ = w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
