// Package main provides role management utilities for Look.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"look/internal/config"
	"look/internal/database"
	"look/internal/models"
	"look/internal/repository"
)

const usage = `Usage:
  admin grant <username> <ROLE>    - Add a role to a user
  admin revoke <username> <ROLE>   - Remove a role from a user
  admin list [ROLE]                - List users, optionally only those holding ROLE`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	t := &tool{
		users: repository.NewUserRepository(db),
		roles: repository.NewRoleRepository(db),
	}
	if err := t.run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

type tool struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

func (t *tool) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "grant", "revoke":
		if len(args) < 3 {
			return errors.New(usage)
		}
		return t.change(ctx, args[0], args[1], strings.ToUpper(args[2]))
	case "list":
		filter := ""
		if len(args) > 1 {
			filter = strings.ToUpper(args[1])
		}
		return t.list(ctx, filter)
	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

func (t *tool) change(ctx context.Context, action, username, role string) error {
	found, err := t.roles.FindExisting(ctx, []string{role})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("role %s does not exist", role)
	}

	user, err := t.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", username)
	}

	var roles models.RoleSet
	switch action {
	case "grant":
		if user.Roles.Has(role) {
			fmt.Printf("User %s (ID: %d) already has %s\n", user.Username, user.ID, role)
			return nil
		}
		roles = models.NewRoleSet(append(slices.Clone(user.Roles), role)...)
	default:
		if !user.Roles.Has(role) {
			fmt.Printf("User %s (ID: %d) does not have %s\n", user.Username, user.ID, role)
			return nil
		}
		roles = slices.DeleteFunc(slices.Clone(user.Roles), func(r string) bool { return r == role })
		if len(roles) == 0 {
			return fmt.Errorf("refusing to remove the last role of %s", user.Username)
		}
	}

	if err := t.users.UpdateRoles(ctx, user.ID, roles); err != nil {
		return err
	}
	fmt.Printf("User %s (ID: %d) now has roles %v\n", user.Username, user.ID, []string(roles))
	return nil
}

func (t *tool) list(ctx context.Context, role string) error {
	page := repository.Page{Limit: 100}
	for {
		users, err := t.users.List(ctx, page)
		if err != nil {
			return err
		}
		for _, u := range users {
			if role != "" && !u.Roles.Has(role) {
				continue
			}
			fmt.Printf("  - %s (ID: %d, Email: %s, Enabled: %t) %v\n", u.Username, u.ID, u.Email, u.Enabled, []string(u.Roles))
		}
		if len(users) < page.Limit {
			return nil
		}
		page.Offset += page.Limit
	}
}
