package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/branchstack/engine/internal/strategy"
	"github.com/branchstack/engine/pkg/logger"
)

// TemplateClone branches a PostgreSQL database with CREATE DATABASE ... TEMPLATE,
// a server-side file-level copy. Fast, but the template database must have no
// active connections for the duration of the copy.
type TemplateClone struct{}

var _ strategy.Strategy = TemplateClone{}

func (TemplateClone) Create(ctx context.Context, target, template string, configuration map[string]any) error {
	cs, err := connectionString(configuration)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, cs)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	logger.L().Info("cloning database from template",
		zap.String("target", target), zap.String("template", template))

	stmt := fmt.Sprintf("CREATE DATABASE %s TEMPLATE %s",
		pgx.Identifier{target}.Sanitize(), pgx.Identifier{template}.Sanitize())
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create database %s: %w", target, err)
	}
	return nil
}

func (TemplateClone) Delete(ctx context.Context, target string, configuration map[string]any) error {
	cs, err := connectionString(configuration)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, cs)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	logger.L().Info("dropping cloned database", zap.String("target", target))

	stmt := "DROP DATABASE " + pgx.Identifier{target}.Sanitize()
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop database %s: %w", target, err)
	}
	return nil
}
