package cmd

import (
	"fmt"
	"slices"

	"ldap2moodle/core/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// inspectCmd groups read-only diagnostics.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read-only diagnostics for mapping and accounts",
}

var inspectMappingCmd = &cobra.Command{
	Use:   "mapping <login>",
	Short: "Show how a directory entry maps onto its account",
	Long: `Reads one directory entry, applies the create and update mapping and
prints both shapes together with the patch a sync would send.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newServices(cfg, l, nil)
		if err != nil {
			return err
		}

		login := model.NormalizeID(args[0])
		rec, ok, err := svc.source.Lookup(ctx, login)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no directory entry for %q", login)
		}

		create := model.NewUser(rec.ID)
		create.Auth = model.String(svc.target.ManagedAuth())
		if err := svc.mapper.Apply(model.ModeCreate, create, rec); err != nil {
			return fmt.Errorf("create mapping failed: %w", err)
		}
		update := model.NewUser(rec.ID)
		if err := svc.mapper.Apply(model.ModeUpdate, update, rec); err != nil {
			return fmt.Errorf("update mapping failed: %w", err)
		}

		users, err := svc.target.ListManagedUsers(ctx)
		if err != nil {
			return err
		}
		current := users[rec.ID]

		attrs := make(map[string][]string)
		for _, name := range rec.Names() {
			attrs[name] = rec.Values(name)
		}
		out := map[string]any{
			"dn":         rec.DN,
			"attributes": attrs,
			"create":     create,
			"update":     update,
			"current":    current,
		}
		if current != nil {
			patch := model.Diff(current, update)
			out["patch"] = patch
			out["changed"] = model.ChangedFields(patch)
		}
		return printJSON(out)
	},
}

var inspectUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the accounts managed by the sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newServices(cfg, l, nil)
		if err != nil {
			return err
		}

		users, err := svc.target.ListManagedUsers(ctx)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(users))
		suspended := 0
		for k, u := range users {
			keys = append(keys, k)
			if u.IsSuspended() {
				suspended++
			}
		}
		slices.Sort(keys)

		for _, k := range keys {
			u := users[k]
			id, _ := u.Identity()
			l.Info("User",
				zap.Int("id", id),
				zap.String("username", u.Login()),
				zap.Stringp("email", u.Email),
				zap.Bool("suspended", u.IsSuspended()),
			)
		}
		l.Info("Managed users",
			zap.String("auth", svc.target.ManagedAuth()),
			zap.Int("total", len(users)),
			zap.Int("suspended", suspended),
		)
		return nil
	},
}

var inspectAnonymousCmd = &cobra.Command{
	Use:   "anonymous <login>",
	Short: "Show the patch that anonymizes an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		u := model.NewUser(model.NormalizeID(args[0]))
		return printJSON(model.Anonymize(u, cfg.Moodle.AnonymousDomain))
	},
}

func init() {
	inspectCmd.AddCommand(inspectMappingCmd, inspectUsersCmd, inspectAnonymousCmd)
	RootCmd.AddCommand(inspectCmd)
}
