// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/models"
	"github.com/tomtom215/weam/internal/validation"
)

const (
	commandTimeout   = 30 * time.Second
	maxPasswordBytes = 72
)

// env is what the commands share: how to reach the database and where to
// report.
type env struct {
	load func(ctx context.Context) (*database.DB, *config.Config, error)
	out  io.Writer
}

// openFromConfig loads the server configuration and opens its database.
func openFromConfig(ctx context.Context) (*database.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Init(logging.Config{Level: "warn", Format: "console"})

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

// withDB opens the database, verifies the schema and runs fn.
func (e *env) withDB(fn func(ctx context.Context, db *database.DB, cfg *config.Config) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	db, cfg, err := e.load(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, db, cfg)
}

// UserInput holds the create-user and set-password flags.
type UserInput struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"oneof=admin user"`
	Nickname string `json:"nickname" validate:"max=255"`
}

// validate applies the struct tags plus bcrypt's byte limit, which max=72
// (counted in runes) does not cover.
func (in *UserInput) validate() error {
	if verr := validation.ValidateStruct(in); verr != nil {
		return errors.New(verr.Message())
	}
	if len(in.Password) > maxPasswordBytes {
		return fmt.Errorf("password must be between 1 and %d bytes", maxPasswordBytes)
	}
	return nil
}

func (e *env) createUser(cmd *Command, args []string) error {
	in := UserInput{}
	fs := cmd.NewFlagSet()
	fs.StringVar(&in.Login, "login", "", "login name")
	fs.StringVar(&in.Password, "password", "", "password (1-72 bytes)")
	fs.StringVar(&in.Role, "role", models.RoleUser, "admin or user")
	fs.StringVar(&in.Nickname, "nickname", "", "display name")
	if done, err := parseFlags(fs, args); done {
		return err
	}
	in.Login = strings.TrimSpace(in.Login)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := in.validate(); err != nil {
		return err
	}

	return e.withDB(func(ctx context.Context, db *database.DB, cfg *config.Config) error {
		hash, err := auth.HashPassword(in.Password, cfg.Security.BcryptCost)
		if err != nil {
			return err
		}
		id, err := db.CreateUser(ctx, &models.User{
			Login:        in.Login,
			PasswordHash: hash,
			Role:         in.Role,
			Nickname:     in.Nickname,
		})
		if err != nil {
			if database.ClassifyError(err).Status == http.StatusConflict {
				return fmt.Errorf("user %q already exists", in.Login)
			}
			return err
		}
		fmt.Fprintf(e.out, "created %s %q (id %d)\n", in.Role, in.Login, id)
		return nil
	})
}

func (e *env) setPassword(cmd *Command, args []string) error {
	in := UserInput{Role: models.RoleUser}
	fs := cmd.NewFlagSet()
	fs.StringVar(&in.Login, "login", "", "login name")
	fs.StringVar(&in.Password, "password", "", "new password (1-72 bytes)")
	if done, err := parseFlags(fs, args); done {
		return err
	}
	in.Login = strings.TrimSpace(in.Login)
	if err := in.validate(); err != nil {
		return err
	}

	return e.withDB(func(ctx context.Context, db *database.DB, cfg *config.Config) error {
		u, err := db.GetUserByLogin(ctx, in.Login)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("user %q not found", in.Login)
			}
			return err
		}
		hash, err := auth.HashPassword(in.Password, cfg.Security.BcryptCost)
		if err != nil {
			return err
		}
		if _, err := db.UpdateUser(ctx, u.ID, map[string]any{"password_hash": hash}); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "password updated for %q\n", in.Login)
		return nil
	})
}

func (e *env) checkSchema(cmd *Command, args []string) error {
	if done, err := parseFlags(cmd.NewFlagSet(), args); done {
		return err
	}

	return e.withDB(func(ctx context.Context, db *database.DB, _ *config.Config) error {
		if err := db.Ping(ctx); err != nil {
			return err
		}
		remainder := "absent"
		if db.HasTransactionRemainder() {
			remainder = "present"
		}
		fmt.Fprintf(e.out, "schema ok (transactions.remainder %s)\n", remainder)
		return nil
	})
}

// parseFlags reports done when the command must stop: after -h (with a nil
// error) or on bad flags and stray positional arguments.
func parseFlags(fs *flag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return true, err
	}
	if fs.NArg() > 0 {
		return true, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return false, nil
}
